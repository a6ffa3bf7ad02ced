package jobs

import "errors"

var errPanic = errors.New("job panicked")
