package main

import (
	"errors"
	"fmt"

	"github.com/John-Robertt/javdbmeta/internal/provider"
)

const (
	exitOK      = 0
	exitFailure = 1
	exitUsage   = 2
	// exitAccess 表示需要用户介入：被站点拦截，或没有可用的登录凭据。
	exitAccess = 3
)

// usageError 表示命令行参数错误（退出码 2）。
type usageError struct {
	err error
}

func (e *usageError) Error() string { return "参数错误：" + e.err.Error() }

func (e *usageError) Unwrap() error { return e.err }

func usageErrorf(format string, args ...any) error {
	return &usageError{err: fmt.Errorf(format, args...)}
}

func exitCode(err error) int {
	if err == nil {
		return exitOK
	}
	var (
		ue *usageError
		sb *provider.SiteBlockedError
		ce *provider.CredentialError
	)
	switch {
	case errors.As(err, &ue):
		return exitUsage
	case errors.As(err, &sb), errors.As(err, &ce):
		return exitAccess
	default:
		return exitFailure
	}
}
