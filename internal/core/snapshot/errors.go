package snapshot

import "errors"

var ErrUnsupportedVersion = errors.New("unsupported snapshot version")
