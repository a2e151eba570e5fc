package queue

import "encoding/json"

// ReloadMsg asks every API instance to reload the dataset.
type ReloadMsg struct {
	Instance    string `json:"instance"`
	RequestedBy int64  `json:"requested_by"`
}

func PublishReload(ch Channel, msg ReloadMsg) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return PublishTopic(ch, ReloadTopic, body)
}
