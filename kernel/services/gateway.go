package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/sisoputnfrba/tp-nucleo-Los-magiOS/kernel/models"
)

// Op es una operación que el gateway ejecuta dentro del núcleo, con la CPU, en nombre de alguien de afuera.
type Op func(p *Proc) (any, error)

type gatewayRequest struct {
	op       Op
	blocking bool
	reply    chan gatewayReply
	// Lo marca quien pidió cuando deja de esperar.
	abandoned atomic.Bool
	answered  bool
}

type gatewayReply struct {
	value any
	err   error
}

// Código de salida de un worker cuyo pedido se abandonó.
const abandonedExitCode = -1

// Gateway es el proceso del núcleo que atiende pedidos que llegan de afuera (HTTP). Revisa su buzón una
// vez por tick; lo que puede bloquear lo corre en un proceso hijo efímero para no frenar al resto.
type Gateway struct {
	k       *Kernel
	mailbox chan *gatewayRequest
	ready   chan struct{}
	pid     int
	// Pedido de cada worker vivo. Sólo lo toca el proceso gateway.
	workers map[int]*gatewayRequest
	log     *slog.Logger
}

// NewGateway prepara el gateway de k. Se lanza desde el boot con Start.
func NewGateway(k *Kernel, logger *slog.Logger) *Gateway {
	return &Gateway{
		k:       k,
		mailbox: make(chan *gatewayRequest, 64),
		ready:   make(chan struct{}),
		pid:     -1,
		workers: map[int]*gatewayRequest{},
		log:     logger.With("component", "gateway"),
	}
}

// Start crea el proceso gateway como hijo de p.
func (g *Gateway) Start(p *Proc, priority int) (int, error) {
	pid, err := p.Start(g.run, nil, 0, priority, "gateway")
	if err != nil {
		return -1, err
	}
	return pid, nil
}

// Pid devuelve el pid del gateway una vez que arrancó.
func (g *Gateway) Pid() int {
	<-g.ready
	return g.pid
}

// Protected indica si pid es el propio gateway. Sólo tiene sentido dentro de una Op.
func (g *Gateway) Protected(pid int) bool {
	return pid == g.pid
}

func (g *Gateway) run(p *Proc, _ any) int {
	g.pid = p.Pid()
	close(g.ready)
	g.log.Info(fmt.Sprintf("## (%d) Gateway atendiendo pedidos", g.pid))

	for {
		g.abandonWorkers(p)
		g.drain(p)
		g.reap(p)
		_ = p.WaitClock(p.Clock() + 1)
	}
}

func (g *Gateway) drain(p *Proc) {
	for {
		select {
		case req := <-g.mailbox:
			// Lo abandonado antes de este pedido se resuelve antes de ejecutarlo.
			g.abandonWorkers(p)
			if req.abandoned.Load() {
				continue
			}
			if req.blocking {
				if err := g.spawnWorker(p, req); err != nil {
					g.answer(req, nil, err)
				}
				continue
			}
			value, err := req.op(p)
			g.answer(req, value, err)
		default:
			return
		}
	}
}

func (g *Gateway) answer(req *gatewayRequest, value any, err error) {
	req.answered = true
	req.reply <- gatewayReply{value: value, err: err}
}

// spawnWorker corre req en un hijo del gateway con su misma prioridad.
func (g *Gateway) spawnWorker(p *Proc, req *gatewayRequest) error {
	priority, err := p.Priority(g.pid)
	if err != nil {
		return err
	}
	name := "worker-" + uuid.New().String()[:8]
	pid, err := p.Start(func(w *Proc, _ any) int {
		if req.abandoned.Load() {
			return abandonedExitCode
		}
		value, err := req.op(w)
		if req.abandoned.Load() && err == nil {
			g.log.Warn(fmt.Sprintf("## (%d) Pedido abandonado después de completarse, se descarta el resultado %v", w.Pid(), value))
		}
		g.answer(req, value, err)
		return 0
	}, nil, 0, priority, name)
	if err != nil {
		return err
	}
	g.workers[pid] = req
	return nil
}

// abandonWorkers mata a los workers bloqueados cuyo pedido ya nadie espera. Un worker que ya fue
// despertado termina su operación.
func (g *Gateway) abandonWorkers(p *Proc) {
	for pid, req := range g.workers {
		if !req.abandoned.Load() {
			continue
		}
		state, err := p.State(pid)
		if err != nil || state.Schedulable() || state == models.StateZombie {
			continue
		}
		if err := p.Kill(pid, abandonedExitCode); err == nil {
			g.log.Debug(fmt.Sprintf("## (%d) Gateway mata al worker (%d) en %s: el pedido fue abandonado", g.pid, pid, state))
		}
	}
}

// reap libera los hijos que ya terminaron: workers y procesos lanzados desde afuera. Un worker que terminó
// sin contestar deja su pedido con error.
func (g *Gateway) reap(p *Proc) {
	children, err := p.Children(g.pid)
	if err != nil {
		return
	}
	for _, pid := range children {
		state, err := p.State(pid)
		if err != nil || state != models.StateZombie {
			continue
		}
		_, code, err := p.Wait(pid)
		if err != nil {
			continue
		}
		g.log.Debug(fmt.Sprintf("## (%d) Gateway libera al hijo (%d) con código %d", g.pid, pid, code))
		if req, ok := g.workers[pid]; ok {
			delete(g.workers, pid)
			if !req.answered {
				g.answer(req, nil, fmt.Errorf("worker %d terminó con código %d: %w", pid, code, models.ErrRequestAborted))
			}
		}
	}
}

// Do ejecuta op dentro del núcleo y espera el resultado. op no debe bloquear.
func (g *Gateway) Do(ctx context.Context, op Op) (any, error) {
	return g.submit(ctx, op, false)
}

// DoBlocking ejecuta op en un proceso propio; puede bloquear dentro del núcleo todo lo que necesite.
func (g *Gateway) DoBlocking(ctx context.Context, op Op) (any, error) {
	return g.submit(ctx, op, true)
}

func (g *Gateway) submit(ctx context.Context, op Op, blocking bool) (any, error) {
	req := &gatewayRequest{op: op, blocking: blocking, reply: make(chan gatewayReply, 1)}
	select {
	case g.mailbox <- req:
	case <-g.k.cpu.Halted():
		return nil, models.ErrKernelStopped
	case <-ctx.Done():
		req.abandoned.Store(true)
		return nil, ctx.Err()
	}
	select {
	case r := <-req.reply:
		return r.value, r.err
	case <-g.k.cpu.Halted():
		return nil, models.ErrKernelStopped
	case <-ctx.Done():
		req.abandoned.Store(true)
		return nil, ctx.Err()
	}
}
