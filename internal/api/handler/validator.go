package handler

import (
	"fmt"
	"sync"
	"time"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"cir-dashboard/backend/pkg/clock"
)

var registerOnce sync.Once

// RegisterValidators 注册自定义校验标签
//   - date:  YYYY-MM-DD
//   - cycle: YYYY-MM
func RegisterValidators() error {
	var err error
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			err = fmt.Errorf("gin 校验引擎不是 validator/v10")
			return
		}
		if err = v.RegisterValidation("date", layoutValidator(clock.DateLayout)); err != nil {
			return
		}
		err = v.RegisterValidation("cycle", layoutValidator(clock.CycleLayout))
	})
	return err
}

func layoutValidator(layout string) validator.Func {
	return func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		if len(s) != len(layout) {
			return false
		}
		_, err := time.Parse(layout, s)
		return err == nil
	}
}
