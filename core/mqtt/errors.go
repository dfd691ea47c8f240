package mqtt

import "errors"

// ErrPublishFailed is returned when a payload could not be delivered to the
// broker after all retries.
var ErrPublishFailed = errors.New("mqtt publish failed")
