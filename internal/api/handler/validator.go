package handler

import (
	"errors"
	"regexp"
	"strings"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// 国内外手机号统一宽松校验：可选 + 前缀，6-15 位数字
var mobilePattern = regexp.MustCompile(`^\+?[0-9]{6,15}$`)

var registerOnce sync.Once

// RegisterValidators 向 gin 默认校验器注册自定义 tag，可重复调用
func RegisterValidators() error {
	var err error
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			err = errors.New("gin 校验引擎不是 validator/v10")
			return
		}
		err = v.RegisterValidation("mobile", validateMobile)
	})
	return err
}

func validateMobile(fl validator.FieldLevel) bool {
	return mobilePattern.MatchString(strings.TrimSpace(fl.Field().String()))
}
