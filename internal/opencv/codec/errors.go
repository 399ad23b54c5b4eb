package codec

import "errors"

// ErrNoOpenCV is returned by operations that need a gocv build.
var ErrNoOpenCV = errors.New("built without OpenCV support (rebuild with -tags gocv)")
