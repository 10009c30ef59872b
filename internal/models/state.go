package models

// UserState keeps the current conversation step per user plus any
// step-scoped scratch data. Stored in Redis with a TTL so an abandoned
// dialog eventually resets to the idle state.
type UserState struct {
	UserID      int64                  `json:"user_id"`
	CurrentStep string                 `json:"current_step"`
	TempData    map[string]interface{} `json:"temp_data,omitempty"`
}

func (s *UserState) GetString(key string) string {
	if s == nil || s.TempData == nil {
		return ""
	}
	if v, ok := s.TempData[key].(string); ok {
		return v
	}
	return ""
}

func (s *UserState) GetInt64(key string) int64 {
	if s == nil || s.TempData == nil {
		return 0
	}
	switch v := s.TempData[key].(type) {
	case int64:
		return v
	case float64:
		return int64(v)
	case int:
		return int64(v)
	default:
		return 0
	}
}

func (s *UserState) GetBool(key string) bool {
	if s == nil || s.TempData == nil {
		return false
	}
	if v, ok := s.TempData[key].(bool); ok {
		return v
	}
	return false
}
