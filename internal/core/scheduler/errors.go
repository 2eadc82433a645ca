package scheduler

import "errors"

var (
	ErrNilDispatcher = errors.New("nil dispatcher")
	ErrDispatch      = errors.New("event dispatch failed")
)
