package queue

import (
	"encoding/json"

	"github.com/hibiken/asynq"

	"github.com/unitv-next/internal/constants"
)

// TaskDeliverCode sends the allocated activation code to the buyer.
const TaskDeliverCode = constants.TaskDeliverCode

// DeliverCodePayload identifies the approved payment whose code should
// be delivered.
type DeliverCodePayload struct {
	PaymentID uint `json:"payment_id"`
}

// NewDeliverCodeTask builds the delivery task.
func NewDeliverCodeTask(payload DeliverCodePayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskDeliverCode, body), nil
}
