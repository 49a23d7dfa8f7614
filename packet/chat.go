package packet

import "encoding/json"

// Text renders s as a plain JSON text component.
func Text(s string) string {
	b, _ := json.Marshal(struct {
		Text string `json:"text"`
	}{s})
	return string(b)
}
