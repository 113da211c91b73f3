// Package programs tiene los programas de usuario que el núcleo sabe lanzar por nombre, desde la
// configuración de arranque o desde el API.
package programs

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/sisoputnfrba/tp-nucleo-Los-magiOS/kernel/services"
)

// Catalog devuelve todos los programas registrados.
func Catalog() services.Catalog {
	return services.Catalog{
		"sleeper":  Sleeper,
		"spinner":  Spinner,
		"producer": Producer,
		"consumer": Consumer,
		"echo":     Echo,
		"spawner":  Spawner,
	}
}

// ints parsea un argumento "a,b,c" con valores por defecto para lo que falte.
func ints(arg any, defaults ...int) ([]int, error) {
	values := append([]int(nil), defaults...)
	s, _ := arg.(string)
	if s == "" {
		return values, nil
	}
	for i, field := range strings.Split(s, ",") {
		n, err := strconv.Atoi(strings.TrimSpace(field))
		if err != nil {
			return nil, fmt.Errorf("argumento %q: %w", s, err)
		}
		if i < len(values) {
			values[i] = n
		} else {
			values = append(values, n)
		}
	}
	return values, nil
}

func printf(p *services.Proc, format string, args ...any) {
	_, _ = p.ConsoleWrite([]byte(fmt.Sprintf(format, args...)))
}

// Sleeper duerme "ticks,veces" y termina.
func Sleeper(p *services.Proc, arg any) int {
	args, err := ints(arg, 10, 1)
	if err != nil {
		return -1
	}
	for i := 0; i < args[1]; i++ {
		if err := p.Sleep(uint32(args[0])); err != nil {
			return -1
		}
	}
	return 0
}

// Spinner cede la CPU la cantidad de veces indicada.
func Spinner(p *services.Proc, arg any) int {
	args, err := ints(arg, 100)
	if err != nil {
		return -1
	}
	for i := 0; i < args[0]; i++ {
		p.Yield()
	}
	return 0
}

// Producer manda "cantidad" mensajes (0, 1, 2...) a la cola "qid".
func Producer(p *services.Proc, arg any) int {
	args, err := ints(arg, 0, 10)
	if err != nil {
		return -1
	}
	for i := 0; i < args[1]; i++ {
		if err := p.QueueSend(args[0], i); err != nil {
			return -1
		}
	}
	return 0
}

// Consumer recibe "cantidad" mensajes de la cola "qid" y devuelve su suma como código de salida.
func Consumer(p *services.Proc, arg any) int {
	args, err := ints(arg, 0, 10)
	if err != nil {
		return -1
	}
	sum := 0
	for i := 0; i < args[1]; i++ {
		message, err := p.QueueReceive(args[0])
		if err != nil {
			return -1
		}
		sum += message
	}
	printf(p, "consumer (%d): suma %d\n", p.Pid(), sum)
	return sum
}

// Echo repite cada línea de la consola hasta leer "exit".
func Echo(p *services.Proc, _ any) int {
	buf := make([]byte, 256)
	for {
		n, err := p.ConsoleRead(buf)
		if err != nil {
			return -1
		}
		line := string(buf[:n])
		if line == "exit" {
			return 0
		}
		printf(p, "%s\n", line)
	}
}

// Spawner lanza "hijos" sleepers con prioridad "prioridad" y los espera a todos. Devuelve cuántos
// terminaron bien.
func Spawner(p *services.Proc, arg any) int {
	args, err := ints(arg, 3, 1)
	if err != nil {
		return -1
	}
	for i := 0; i < args[0]; i++ {
		name := fmt.Sprintf("sleeper-%d", i)
		if _, err := p.Start(Sleeper, strconv.Itoa(i+1), 0, args[1], name); err != nil {
			return -1
		}
	}
	ok := 0
	for i := 0; i < args[0]; i++ {
		if _, code, err := p.Wait(-1); err == nil && code == 0 {
			ok++
		}
	}
	return ok
}
