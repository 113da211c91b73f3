package models

import memModels "github.com/sisoputnfrba/tp-nucleo-Los-magiOS/memoria/models"

// Context es la ranura de contexto de un proceso. SP es el puntero de pila que dejó el constructor de
// marcos; la CPU lo lee en el primer despacho. Resume transporta la CPU de vuelta al proceso: true para
// continuar, false para desarmar la goroutine.
type Context struct {
	Name    string
	SP      memModels.Addr
	Resume  chan bool
	Started bool
	Dead    bool
}

func NewContext(name string, sp memModels.Addr) *Context {
	return &Context{Name: name, SP: sp, Resume: make(chan bool, 1)}
}

// Líneas de interrupción del PIC simulado.
const (
	IRQTimer    = 0
	IRQKeyboard = 1
)

// Palabras del marco inicial de la pila de núcleo, desde el SP hacia arriba.
const (
	FrameEBX = iota
	FrameESI
	FrameEDI
	FrameEBP
	FrameReturn
	FrameEIP
	FrameCS
	FrameEFLAGS
	FrameUserSP
	FrameSS
	FrameWords
)

// Palabras del preludio de la pila de usuario.
const (
	PreludeReturn = iota
	PreludeArg
	PreludeWords
)

const (
	UserCS     = 0x43
	UserSS     = 0x4B
	FlagsIF    = 0x202
	TextBase   = 0x00100000
	TextStride = 0x10
)

// Frame es la vista decodificada del marco inicial.
type Frame struct {
	Return memModels.Addr
	Entry  memModels.Addr
	CS     uint64
	Flags  uint64
	UserSP memModels.Addr
	SS     uint64
	Exit   memModels.Addr
	Arg    uint64
}
