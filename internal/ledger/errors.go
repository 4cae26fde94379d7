package ledger

import "errors"

var ErrInvalidLimit = errors.New("limit must be at least 1")
