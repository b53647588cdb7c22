package services

import (
	"fmt"
	"math/rand/v2"
	"strconv"
	"strings"
)

// Captcha 一道简单的算术题
type Captcha struct {
	Question string
	Answer   int
}

// Verify 比对用户输入
func (c Captcha) Verify(input string) bool {
	n, err := strconv.Atoi(strings.TrimSpace(input))
	return err == nil && n == c.Answer
}

// CaptchaService 可被多个请求并发使用
type CaptchaService struct{}

func NewCaptchaService() *CaptchaService {
	return &CaptchaService{}
}

// Generate 生成 0-9 之间的加减法，结果不为负
func (s *CaptchaService) Generate() Captcha {
	a := rand.IntN(10)
	b := rand.IntN(10)

	if rand.IntN(2) == 0 {
		return Captcha{Question: fmt.Sprintf("%d + %d", a, b), Answer: a + b}
	}
	if a < b {
		a, b = b, a
	}
	return Captcha{Question: fmt.Sprintf("%d - %d", a, b), Answer: a - b}
}
