package services

import (
	"github.com/sisoputnfrba/tp-nucleo-Los-magiOS/cpu/models"
	memModels "github.com/sisoputnfrba/tp-nucleo-Los-magiOS/memoria/models"
)

// Memory es el acceso por palabras a la memoria simulada.
type Memory interface {
	ReadWord(addr memModels.Addr) uint64
	WriteWord(addr memModels.Addr, value uint64)
}

// BuildInitialFrame es el único lugar donde se escriben marcos crudos. Deja en la pila de usuario el
// preludio [salida implícita, argumento] y en la pila de núcleo los registros callee-saved en cero, la
// dirección de arranque a la que vuelve el primer switch y el marco iret con el punto de entrada.
// Devuelve el SP opaco que se guarda en el Context.
func BuildInitialFrame(mem Memory, kernelTop, userTop, startup, entry, exit memModels.Addr, arg uint64) memModels.Addr {
	userSP := userTop - models.PreludeWords*memModels.WordSize
	mem.WriteWord(userSP+models.PreludeReturn*memModels.WordSize, uint64(exit))
	mem.WriteWord(userSP+models.PreludeArg*memModels.WordSize, arg)

	sp := kernelTop - models.FrameWords*memModels.WordSize
	words := [models.FrameWords]uint64{
		models.FrameReturn: uint64(startup),
		models.FrameEIP:    uint64(entry),
		models.FrameCS:     models.UserCS,
		models.FrameEFLAGS: models.FlagsIF,
		models.FrameUserSP: uint64(userSP),
		models.FrameSS:     models.UserSS,
	}
	for i, w := range words {
		mem.WriteWord(sp+memModels.Addr(i*memModels.WordSize), w)
	}
	return sp
}

// ReadFrame decodifica el marco que dejó BuildInitialFrame.
func ReadFrame(mem Memory, sp memModels.Addr) models.Frame {
	word := func(i int) uint64 { return mem.ReadWord(sp + memModels.Addr(i*memModels.WordSize)) }
	frame := models.Frame{
		Return: memModels.Addr(word(models.FrameReturn)),
		Entry:  memModels.Addr(word(models.FrameEIP)),
		CS:     word(models.FrameCS),
		Flags:  word(models.FrameEFLAGS),
		UserSP: memModels.Addr(word(models.FrameUserSP)),
		SS:     word(models.FrameSS),
	}
	frame.Exit = memModels.Addr(mem.ReadWord(frame.UserSP + models.PreludeReturn*memModels.WordSize))
	frame.Arg = mem.ReadWord(frame.UserSP + models.PreludeArg*memModels.WordSize)
	return frame
}
