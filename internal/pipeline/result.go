package pipeline

import "encoding/json"

// Result is the single JSON object printed for every invocation:
// {"success":true,"text":...,"language":...} or {"success":false,"error":...}.
type Result struct {
	Success  bool   `json:"success"`
	Text     string `json:"text,omitempty"`
	Language string `json:"language,omitempty"`
	Error    string `json:"error,omitempty"`
}

func Success(text, language string) Result {
	return Result{Success: true, Text: text, Language: language}
}

func Failure(msg string) Result {
	return Result{Error: msg}
}

// MarshalJSON keeps text present on success even when it is empty.
func (r Result) MarshalJSON() ([]byte, error) {
	if r.Success {
		return json.Marshal(struct {
			Success  bool   `json:"success"`
			Text     string `json:"text"`
			Language string `json:"language"`
		}{true, r.Text, r.Language})
	}
	return json.Marshal(struct {
		Success bool   `json:"success"`
		Error   string `json:"error"`
	}{false, r.Error})
}
