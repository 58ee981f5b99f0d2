package web

import (
	"bytes"
	"html/template"
	"net/http"

	"github.com/roomiez/webapp/internal/model"
)

const templateDir string = "web/tmpl"

type pageData struct {
	PageTitle string
	User      *model.User
	Rooms     []model.Room
	Room      *model.Room
	Owner     *model.User
	Contacts  []model.Contact
	Message   string
	Error     string
}

func render(w http.ResponseWriter, r *http.Request, tmpl string, td *pageData) error {
	t, err := template.ParseFiles(
		templateDir+"/"+tmpl,
		templateDir+"/"+"base.html",
	)
	if err != nil {
		return err
	}

	buf := &bytes.Buffer{}

	err = t.Execute(buf, td)
	if err != nil {
		return err
	}

	_, err = buf.WriteTo(w)
	return err
}
