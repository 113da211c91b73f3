package main

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sisoputnfrba/tp-nucleo-Los-magiOS/kernel/models"
	memModels "github.com/sisoputnfrba/tp-nucleo-Los-magiOS/memoria/models"
	"github.com/sisoputnfrba/tp-nucleo-Los-magiOS/utils/web/client"
)

var (
	flagConfig string
	flagIp     string
	flagPort   int
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "kernel",
		Short:        "Núcleo didáctico: planificador por prioridades, colas de mensajes y consola",
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVar(&flagConfig, "config", ConfigPath, "Archivo de configuración (yaml o json)")
	root.PersistentFlags().StringVar(&flagIp, "ip", "", "IP del kernel (por defecto la de la configuración)")
	root.PersistentFlags().IntVar(&flagPort, "port", 0, "Puerto del kernel (por defecto el de la configuración)")

	root.AddCommand(
		newBootCmd(),
		newPsCmd(),
		newStartCmd(),
		newKillCmd(),
		newNiceCmd(),
		newQueueCmd(),
		newMemInfoCmd(),
		newTypeCmd(),
		newPowerOffCmd(),
	)
	return root
}

func newBootCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "boot",
		Short: "Arranca el núcleo y su API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(flagConfig)
			if err != nil {
				return err
			}
			if flagPort != 0 {
				cfg.PortKernel = flagPort
			}
			return bootKernel(cmd.Context(), cfg)
		},
	}
}

// target resuelve a qué kernel le hablan los comandos cliente. Si no hay configuración usa los valores por
// defecto.
func target() (string, int) {
	cfg := models.DefaultConfig()
	if loaded, err := loadConfig(flagConfig); err == nil {
		cfg = loaded
	}
	ip, port := cfg.IpKernel, cfg.PortKernel
	if flagIp != "" {
		ip = flagIp
	}
	if flagPort != 0 {
		port = flagPort
	}
	return ip, port
}

func call(ctx context.Context, method, query string, body, out any) error {
	ip, port := target()
	return client.DoJson(ctx, ip, port, method, query, body, out)
}

func pidArg(s string) (int, error) {
	pid, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("pid inválido %q", s)
	}
	return pid, nil
}

func newPsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ps",
		Short: "Lista los procesos",
		RunE: func(cmd *cobra.Command, args []string) error {
			var snap models.Snapshot
			if err := call(cmd.Context(), http.MethodGet, "kernel/procesos", nil, &snap); err != nil {
				return fmt.Errorf("listar procesos: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "reloj: %d  activo: %d\n\n", snap.Clock, snap.ActivePid)
			fmt.Fprintf(out, "%-6s  %-6s  %-4s  %-12s  %-20s  %-10s  %s\n", "PID", "PPID", "PRIO", "ESTADO", "NOMBRE", "PILA", "ESPERA")
			for _, p := range snap.Processes {
				waiting := p.WaitingOn
				if p.ExitCode != nil {
					waiting = fmt.Sprintf("código %d", *p.ExitCode)
				}
				fmt.Fprintf(out, "%-6d  %-6d  %-4d  %-12s  %-20s  %-10s  %s\n",
					p.Pid, p.ParentPid, p.Priority, p.State, p.Name, p.Stack, waiting)
			}
			return nil
		},
	}
}

func newStartCmd() *cobra.Command {
	var (
		name      string
		priority  int
		stackSize uint64
	)
	cmd := &cobra.Command{
		Use:   "start <programa> [argumento]",
		Short: "Lanza un programa del catálogo",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			body := models.StartRequest{Program: args[0], Name: name, Priority: priority, StackSize: stackSize}
			if len(args) > 1 {
				body.Arg = args[1]
			}
			var resp models.StartResponse
			if err := call(cmd.Context(), http.MethodPost, "kernel/procesos", body, &resp); err != nil {
				return fmt.Errorf("lanzar %s: %w", args[0], err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "pid %d\n", resp.Pid)
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "Nombre del proceso (por defecto el del programa)")
	cmd.Flags().IntVar(&priority, "priority", 1, "Prioridad (0-255)")
	cmd.Flags().Uint64Var(&stackSize, "stack", 0, "Tamaño de la pila de usuario en bytes")
	return cmd
}

func newKillCmd() *cobra.Command {
	var code int
	cmd := &cobra.Command{
		Use:   "kill <pid>",
		Short: "Finaliza un proceso y todos sus descendientes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pid, err := pidArg(args[0])
			if err != nil {
				return err
			}
			query := fmt.Sprintf("kernel/procesos/%d", pid)
			if err := call(cmd.Context(), http.MethodDelete, query, models.KillRequest{Code: code}, nil); err != nil {
				return fmt.Errorf("finalizar %d: %w", pid, err)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&code, "code", -1, "Código de salida")
	return cmd
}

func newNiceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "nice <pid> <prioridad>",
		Short: "Cambia la prioridad de un proceso",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			pid, err := pidArg(args[0])
			if err != nil {
				return err
			}
			priority, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("prioridad inválida %q", args[1])
			}
			var resp models.PriorityResponse
			query := fmt.Sprintf("kernel/procesos/%d/prioridad", pid)
			if err := call(cmd.Context(), http.MethodPut, query, models.PriorityRequest{Priority: priority}, &resp); err != nil {
				return fmt.Errorf("cambiar prioridad de %d: %w", pid, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "(%d) %d -> %d\n", pid, resp.Previous, priority)
			return nil
		},
	}
}

func newQueueCmd() *cobra.Command {
	queue := &cobra.Command{
		Use:   "cola",
		Short: "Colas de mensajes",
	}

	queue.AddCommand(
		&cobra.Command{
			Use:   "crear <capacidad>",
			Short: "Crea una cola",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				capacity, err := strconv.Atoi(args[0])
				if err != nil {
					return fmt.Errorf("capacidad inválida %q", args[0])
				}
				var resp models.QueueCreateResponse
				if err := call(cmd.Context(), http.MethodPost, "kernel/colas", models.QueueCreateRequest{Capacity: capacity}, &resp); err != nil {
					return fmt.Errorf("crear cola: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "cola %d\n", resp.Id)
				return nil
			},
		},
		&cobra.Command{
			Use:   "enviar <qid> <mensaje>",
			Short: "Envía un mensaje (espera si la cola está llena)",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				message, err := strconv.Atoi(args[1])
				if err != nil {
					return fmt.Errorf("mensaje inválido %q", args[1])
				}
				query := fmt.Sprintf("kernel/colas/%s/mensajes", args[0])
				return call(cmd.Context(), http.MethodPost, query, models.MessageRequest{Message: message}, nil)
			},
		},
		&cobra.Command{
			Use:   "recibir <qid>",
			Short: "Recibe un mensaje (espera si la cola está vacía)",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				var resp models.MessageResponse
				if err := call(cmd.Context(), http.MethodGet, fmt.Sprintf("kernel/colas/%s/mensajes", args[0]), nil, &resp); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), resp.Message)
				return nil
			},
		},
		&cobra.Command{
			Use:   "listar",
			Short: "Lista las colas",
			RunE: func(cmd *cobra.Command, args []string) error {
				var queues []models.QueueInfo
				if err := call(cmd.Context(), http.MethodGet, "kernel/colas", nil, &queues); err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "%-5s  %-9s  %-7s  %-7s  %s\n", "ID", "CAPACIDAD", "LARGO", "CUENTA", "ESPERANDO")
				for _, q := range queues {
					fmt.Fprintf(out, "%-5d  %-9d  %-7d  %-7d  %v\n", q.Id, q.Capacity, q.Length, q.Count, q.Waiting)
				}
				return nil
			},
		},
		&cobra.Command{
			Use:   "reset <qid>",
			Short: "Vacía la cola y despierta a quienes esperaban",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return call(cmd.Context(), http.MethodPost, fmt.Sprintf("kernel/colas/%s/reset", args[0]), nil, nil)
			},
		},
		&cobra.Command{
			Use:   "borrar <qid>",
			Short: "Elimina la cola",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return call(cmd.Context(), http.MethodDelete, fmt.Sprintf("kernel/colas/%s", args[0]), nil, nil)
			},
		},
	)
	return queue
}

func newMemInfoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "meminfo",
		Short: "Muestra la ocupación del heap",
		RunE: func(cmd *cobra.Command, args []string) error {
			var info memModels.MemoryInfo
			if err := call(cmd.Context(), http.MethodGet, "memoria", nil, &info); err != nil {
				return fmt.Errorf("consultar memoria: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "usado %s de %s (%s), %d/%d páginas de %d bytes\n",
				info.Used, info.Capacity, info.Percent, info.UsedPages, info.CapacityPages, info.PageSize)
			return nil
		},
	}
}

func newTypeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tipear <texto>...",
		Short: "Escribe una línea en la consola del núcleo",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			line := strings.Join(args, " ") + "\n"
			return call(cmd.Context(), http.MethodPost, "kernel/consola", models.ConsoleRequest{Input: line}, nil)
		},
	}
}

func newPowerOffCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "apagar",
		Short: "Apaga el núcleo",
		RunE: func(cmd *cobra.Command, args []string) error {
			return call(cmd.Context(), http.MethodPost, "kernel/apagar", nil, nil)
		},
	}
}
