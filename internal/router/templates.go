package router

import (
	"fmt"
	"html/template"
	"io/fs"
	"path"
	"socialnet/internal/utils"
	"time"

	"github.com/gin-contrib/multitemplate"
)

// views 模板名（即 handler 中使用的名字）
var views = []string{
	"auth/login.html",
	"auth/register.html",
	"feed/home.html",
	"post/detail.html",
	"post/edit.html",
	"post/delete.html",
	"user/profile.html",
	"error.html",
}

var funcMap = template.FuncMap{
	"dict": func(values ...interface{}) (map[string]interface{}, error) {
		if len(values)%2 != 0 {
			return nil, fmt.Errorf("invalid dict call")
		}
		dict := make(map[string]interface{}, len(values)/2)
		for i := 0; i < len(values); i += 2 {
			key, ok := values[i].(string)
			if !ok {
				return nil, fmt.Errorf("dict keys must be strings")
			}
			dict[key] = values[i+1]
		}
		return dict, nil
	},
	"add": func(a, b int) int {
		return a + b
	},
	"timeAgo":  timeAgo,
	"markdown": utils.RenderMarkdown,
}

func timeAgo(t time.Time) string {
	seconds := int(time.Since(t).Seconds())
	switch {
	case seconds < 60:
		return "刚刚"
	case seconds < 3600:
		return fmt.Sprintf("%d分钟前", seconds/60)
	case seconds < 86400:
		return fmt.Sprintf("%d小时前", seconds/3600)
	case seconds < 2592000:
		return fmt.Sprintf("%d天前", seconds/86400)
	case seconds < 31536000:
		return fmt.Sprintf("%d个月前", seconds/2592000)
	}
	return fmt.Sprintf("%d年前", seconds/31536000)
}

// loadTemplates 每个页面 = 布局 + 公共片段 + 页面本身
func loadTemplates(fsys fs.FS) (multitemplate.Renderer, error) {
	r := multitemplate.NewRenderer()

	layouts, err := fs.Glob(fsys, "layouts/*.html")
	if err != nil {
		return nil, err
	}
	if len(layouts) == 0 {
		return nil, fmt.Errorf("no layout templates found")
	}
	includes, err := fs.Glob(fsys, "includes/*.html")
	if err != nil {
		return nil, err
	}

	for _, view := range views {
		files := make([]string, 0, len(layouts)+len(includes)+1)
		files = append(files, layouts...)
		files = append(files, includes...)
		files = append(files, "views/"+view)

		tmpl, err := template.New(path.Base(files[0])).Funcs(funcMap).ParseFS(fsys, files...)
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", view, err)
		}
		r.Add(view, tmpl)
	}
	return r, nil
}
