// Package version хранит сведения о сборке, заполняемые через -ldflags:
//
//	go build -ldflags "-X github.com/vladislavdragonenkov/marazul/internal/version.version=v1.2.0"
package version

import "fmt"

var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Info возвращает версию, коммит и дату сборки.
func Info() (v, c, d string) { return version, commit, date }

// GetVersion возвращает версию сборки.
func GetVersion() string { return version }

// GetCommit возвращает хеш коммита.
func GetCommit() string { return commit }

// GetDate возвращает дату сборки.
func GetDate() string { return date }

func String() string {
	return fmt.Sprintf("version=%s commit=%s date=%s", version, commit, date)
}

// UserAgent строит заголовок User-Agent для HTTP-клиента.
func UserAgent(component string) string {
	if component == "" {
		component = "marazul"
	}
	return fmt.Sprintf("%s/%s (+%s)", component, version, commit)
}
