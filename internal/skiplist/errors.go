package skiplist

import "errors"

// ErrDuplicateKey is returned by Insert when an equal key is already present.
// Keys must be unique; callers that need versions should fold a sequence
// number into the key.
var ErrDuplicateKey = errors.New("skiplist: key already exists")
