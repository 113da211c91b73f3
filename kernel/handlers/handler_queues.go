package handlers

import (
	"net/http"

	"github.com/sisoputnfrba/tp-nucleo-Los-magiOS/kernel/models"
	"github.com/sisoputnfrba/tp-nucleo-Los-magiOS/kernel/services"
)

func ListQueuesHandler(gateway Gateway) func(http.ResponseWriter, *http.Request) {
	return func(writer http.ResponseWriter, request *http.Request) {
		run(writer, request, http.StatusOK, gateway.Do, func(p *services.Proc) (any, error) {
			return p.Snapshot().Queues, nil
		})
	}
}

func CreateQueueHandler(gateway Gateway) func(http.ResponseWriter, *http.Request) {
	return func(writer http.ResponseWriter, request *http.Request) {
		var body models.QueueCreateRequest
		if err := decode(request, &body); err != nil {
			sendKernelError(writer, request, err)
			return
		}
		run(writer, request, http.StatusCreated, gateway.Do, func(p *services.Proc) (any, error) {
			qid, err := p.QueueCreate(body.Capacity)
			if err != nil {
				return nil, err
			}
			return models.QueueCreateResponse{Id: qid}, nil
		})
	}
}

func GetQueueHandler(gateway Gateway) func(http.ResponseWriter, *http.Request) {
	return func(writer http.ResponseWriter, request *http.Request) {
		qid, err := pathInt(request, "qid")
		if err != nil {
			sendKernelError(writer, request, err)
			return
		}
		run(writer, request, http.StatusOK, gateway.Do, func(p *services.Proc) (any, error) {
			return p.QueueInfo(qid)
		})
	}
}

func DeleteQueueHandler(gateway Gateway) func(http.ResponseWriter, *http.Request) {
	return func(writer http.ResponseWriter, request *http.Request) {
		qid, err := pathInt(request, "qid")
		if err != nil {
			sendKernelError(writer, request, err)
			return
		}
		_, err = gateway.Do(request.Context(), func(p *services.Proc) (any, error) {
			return nil, p.QueueDelete(qid)
		})
		if err != nil {
			sendKernelError(writer, request, err)
			return
		}
		writer.WriteHeader(http.StatusNoContent)
	}
}

// SendMessageHandler puede quedar esperando si la cola está llena.
func SendMessageHandler(gateway Gateway) func(http.ResponseWriter, *http.Request) {
	return func(writer http.ResponseWriter, request *http.Request) {
		qid, err := pathInt(request, "qid")
		if err != nil {
			sendKernelError(writer, request, err)
			return
		}
		var body models.MessageRequest
		if err := decode(request, &body); err != nil {
			sendKernelError(writer, request, err)
			return
		}
		_, err = gateway.DoBlocking(request.Context(), func(p *services.Proc) (any, error) {
			return nil, p.QueueSend(qid, body.Message)
		})
		if err != nil {
			sendKernelError(writer, request, err)
			return
		}
		writer.WriteHeader(http.StatusAccepted)
	}
}

// ReceiveMessageHandler puede quedar esperando si la cola está vacía.
func ReceiveMessageHandler(gateway Gateway) func(http.ResponseWriter, *http.Request) {
	return func(writer http.ResponseWriter, request *http.Request) {
		qid, err := pathInt(request, "qid")
		if err != nil {
			sendKernelError(writer, request, err)
			return
		}
		run(writer, request, http.StatusOK, gateway.DoBlocking, func(p *services.Proc) (any, error) {
			message, err := p.QueueReceive(qid)
			if err != nil {
				return nil, err
			}
			return models.MessageResponse{Message: message}, nil
		})
	}
}

func ResetQueueHandler(gateway Gateway) func(http.ResponseWriter, *http.Request) {
	return func(writer http.ResponseWriter, request *http.Request) {
		qid, err := pathInt(request, "qid")
		if err != nil {
			sendKernelError(writer, request, err)
			return
		}
		_, err = gateway.Do(request.Context(), func(p *services.Proc) (any, error) {
			return nil, p.QueueReset(qid)
		})
		if err != nil {
			sendKernelError(writer, request, err)
			return
		}
		writer.WriteHeader(http.StatusNoContent)
	}
}
