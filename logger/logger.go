package logger

import (
	"go.uber.org/zap"
)

// Init 初始化全局 zap logger，业务代码统一使用 zap.L()
func Init(mode string) error {
	var (
		l   *zap.Logger
		err error
	)
	if mode == "debug" {
		l, err = zap.NewDevelopment()
	} else {
		l, err = zap.NewProduction()
	}
	if err != nil {
		return err
	}
	zap.ReplaceGlobals(l)
	return nil
}
