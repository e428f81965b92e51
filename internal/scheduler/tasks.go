package scheduler

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const TaskIndexProduct = "catalog:index_product"

const TaskRemoveProduct = "catalog:remove_product"

type IndexProductPayload struct {
	ProductID string `json:"productId"`
}

type RemoveProductPayload struct {
	ProductID string `json:"productId"`
}

func NewIndexProductTask(payload IndexProductPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskIndexProduct, data), nil
}

func ParseIndexProductPayload(task *asynq.Task) (IndexProductPayload, error) {
	var payload IndexProductPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return IndexProductPayload{}, err
	}
	return payload, nil
}

func NewRemoveProductTask(payload RemoveProductPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskRemoveProduct, data), nil
}

func ParseRemoveProductPayload(task *asynq.Task) (RemoveProductPayload, error) {
	var payload RemoveProductPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return RemoveProductPayload{}, err
	}
	return payload, nil
}
