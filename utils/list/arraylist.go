// Package list tiene la lista genérica que el núcleo usa como pila de trabajo.
package list

import "errors"

var ErrEmptyList = errors.New("list is empty")

// ArrayList no es segura para uso concurrente: dentro del núcleo la usa un solo dueño a la vez, el
// proceso que tiene la CPU.
type ArrayList[T any] struct {
	items []T
}

// Add inserta un elemento al final de la lista.
//
// Ejemplo:
//
//	func main() {
//		pending := &list.ArrayList[int]{}
//		pending.Add(10)
//		pending.Add(20)
//	}
func (list *ArrayList[T]) Add(item T) {
	list.items = append(list.items, item)
}

// Pop remueve y devuelve el último elemento, lo que permite usar la lista como pila.
func (list *ArrayList[T]) Pop() (T, error) {
	var zero T
	n := len(list.items)
	if n == 0 {
		return zero, ErrEmptyList
	}
	item := list.items[n-1]
	list.items[n-1] = zero
	list.items = list.items[:n-1]
	return item, nil
}

func (list *ArrayList[T]) Size() int {
	return len(list.items)
}
