package echoapi

import (
	"bytes"
	"html/template"
	"io"
	"io/fs"
	"path"
	"strings"
	"sync"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/learnova/learnova/core"
	"github.com/learnova/learnova/core/access"
	"github.com/learnova/learnova/core/toast"
)

const (
	templatesDir   = "templates"
	layoutFile     = "layout.gohtml"
	toastsFile     = "toasts.gohtml"
	layoutTemplate = "layout"
	toastsTemplate = "toasts"
)

var templateFuncs = template.FuncMap{
	"initials": core.Initials,
	"title":    strings.Title,
}

// pageData is the view model shared by every page.
type pageData struct {
	AppName string
	User    *access.User
	Home    string
	Group   string
	Email   string
	Toasts  template.HTML
}

// renderer implements echo.Renderer. Each page is parsed with the layout into its own set
// so that every page can define "title" and "content".
type renderer struct {
	pages  map[string]*template.Template
	toasts *template.Template
}

var _ echo.Renderer = (*renderer)(nil)

func newRenderer(fsys fs.FS) (*renderer, error) {
	files, err := fs.Glob(fsys, path.Join(templatesDir, "*.gohtml"))
	if err != nil {
		return nil, errors.Wrap(err, "listing templates")
	}

	layout := path.Join(templatesDir, layoutFile)
	toasts := path.Join(templatesDir, toastsFile)
	r := &renderer{pages: make(map[string]*template.Template, len(files))}

	r.toasts, err = template.New(toastsFile).Funcs(templateFuncs).ParseFS(fsys, toasts)
	if err != nil {
		return nil, errors.Wrap(err, "parsing toasts template")
	}

	for _, file := range files {
		if file == layout || file == toasts {
			continue
		}
		name := strings.TrimSuffix(path.Base(file), ".gohtml")
		tmpl, err := template.New(name).Funcs(templateFuncs).ParseFS(fsys, layout, file)
		if err != nil {
			return nil, errors.Wrapf(err, "parsing template %s", name)
		}
		r.pages[name] = tmpl
	}
	return r, nil
}

func (r *renderer) Render(w io.Writer, name string, data interface{}, _ echo.Context) error {
	tmpl, ok := r.pages[name]
	if !ok {
		return errors.Errorf("template %q not found", name)
	}
	return tmpl.ExecuteTemplate(w, layoutTemplate, data)
}

func (r *renderer) renderToasts(w io.Writer, toasts []toast.Toast) error {
	return r.toasts.ExecuteTemplate(w, toastsTemplate, toasts)
}

// toastRenderer is the single subscriber of the toast store that turns the queue into HTML.
// Pages and the /toasts fragment read the cached result.
type toastRenderer struct {
	tmpl        *renderer
	logger      core.Logger
	mu          sync.RWMutex
	html        template.HTML
	count       int
	unsubscribe func()
}

func newToastRenderer(store *toast.Store, tmpl *renderer, logger core.Logger) *toastRenderer {
	tr := &toastRenderer{tmpl: tmpl, logger: logger}
	tr.unsubscribe = store.Subscribe(tr.render)
	return tr
}

func (tr *toastRenderer) render(toasts []toast.Toast) {
	var buf bytes.Buffer
	if len(toasts) > 0 {
		if err := tr.tmpl.renderToasts(&buf, toasts); err != nil {
			tr.logger.Error("rendering toasts", errors.Wrap(err, "rendering toasts"))
			return
		}
	}

	tr.mu.Lock()
	tr.html = template.HTML(buf.String()) // nolint:gosec
	tr.count = len(toasts)
	tr.mu.Unlock()
}

// HTML returns the last rendered toast region; empty when no toast is queued.
func (tr *toastRenderer) HTML() template.HTML {
	tr.mu.RLock()
	defer tr.mu.RUnlock()
	return tr.html
}

func (tr *toastRenderer) Count() int {
	tr.mu.RLock()
	defer tr.mu.RUnlock()
	return tr.count
}

func (tr *toastRenderer) Close() {
	tr.unsubscribe()
}
