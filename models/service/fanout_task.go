package service

import (
	"encoding/json"
	"fmt"

	"github.com/artefactual-labs/scope-services/constants"
)

// FanoutTask is the payload of the search_update_descendants and
// search_delete_descendants NSQ topics: which ancestor class changed,
// and its primary key.
type FanoutTask struct {
	Class string `json:"class"`
	ID    uint   `json:"id"`
}

func NewFanoutTask(class string, id uint) *FanoutTask {
	return &FanoutTask{Class: class, ID: id}
}

// Validate returns an error unless Class names a model with search
// descendants.
func (task *FanoutTask) Validate() error {
	if task.Class != constants.ClassCollection && task.Class != constants.ClassDIP {
		return fmt.Errorf("Can not fan out to descendants of %s.", task.Class)
	}
	if task.ID == 0 {
		return fmt.Errorf("Fan-out task is missing the ancestor id.")
	}
	return nil
}

func FanoutTaskFromJSON(jsonData []byte) (*FanoutTask, error) {
	task := &FanoutTask{}
	err := json.Unmarshal(jsonData, task)
	if err != nil {
		return nil, err
	}
	return task, nil
}

func (task *FanoutTask) ToJSON() (string, error) {
	bytes, err := json.Marshal(task)
	if err != nil {
		return "", err
	}
	return string(bytes), nil
}
