package services

import (
	"errors"
	"strconv"
	"strings"

	"socialnet/internal/models"
)

// Page 一页帖子及分页信息
type Page struct {
	Posts    []models.Post
	Number   int   // 当前页，从 1 开始
	NumPages int   // 总页数，空结果也至少 1 页
	Total    int64 // 总条数
}

func (p *Page) HasPrev() bool { return p.Number > 1 }
func (p *Page) HasNext() bool { return p.Number < p.NumPages }
func (p *Page) PrevNumber() int {
	if p.HasPrev() {
		return p.Number - 1
	}
	return p.Number
}
func (p *Page) NextNumber() int {
	if p.HasNext() {
		return p.Number + 1
	}
	return p.Number
}

// paginate parses the raw page parameter and clamps it to [1, numPages].
// Anything unparsable is page 1; numbers too large for int64 land on the last page.
func paginate(pageParam string, total int64, perPage int) (page, numPages int) {
	numPages = int((total + int64(perPage) - 1) / int64(perPage))
	if numPages == 0 {
		numPages = 1
	}

	raw := strings.TrimSpace(pageParam)
	n, err := strconv.ParseInt(raw, 10, 64)
	switch {
	case errors.Is(err, strconv.ErrRange) && !strings.HasPrefix(raw, "-"):
		return numPages, numPages
	case err != nil || n < 1:
		return 1, numPages
	case n > int64(numPages):
		return numPages, numPages
	}
	return int(n), numPages
}
