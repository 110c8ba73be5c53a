// Package solver запускает внешние MILP-солверы над LP-файлом модели
// и нормализует их результаты. Солверы не реализуются, используются
// установленные в системе бинарники.
package solver

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"clinkerplan/internal/milp"
	"clinkerplan/pkg/apperror"
	"clinkerplan/pkg/domain"
)

// Options параметры запуска солвера
type Options struct {
	TimeLimitSeconds float64
	MIPGap           float64
	WorkDir          string
	CaptureLogs      bool
	LogDir           string
}

// Result нормализованный результат одного запуска бэкенда
type Result struct {
	Termination domain.Termination
	Objective   float64
	// Values значения переменных по индексам модели
	Values  []float64
	LogPath string
}

// HasSolution сообщает, содержит ли результат пригодное решение
func (r *Result) HasSolution() bool {
	return r.Termination.IsSuccess() && r.Values != nil
}

// Backend интерфейс внешнего солвера
type Backend interface {
	// Name возвращает каноническое имя бэкенда
	Name() string
	// Available проверяет, установлен ли солвер в системе
	Available() bool
	// Solve решает модель и разбирает решение
	Solve(ctx context.Context, model *milp.Model, opts Options) (*Result, error)
}

// run общий цикл exec-бэкендов: записать LP-файл во временный каталог,
// запустить бинарник, при необходимости сохранить лог
type run struct {
	backend string
	opts    Options
	dir     string
	lpPath  string
	logPath string
}

// newRun подготавливает рабочий каталог и LP-файл модели
func newRun(backend string, model *milp.Model, opts Options) (*run, error) {
	dir, err := os.MkdirTemp(opts.WorkDir, "clinkerplan-"+backend+"-")
	if err != nil {
		return nil, apperror.Wrap(err, apperror.CodeSolverError, "create solver work dir")
	}
	r := &run{
		backend: backend,
		opts:    opts,
		dir:     dir,
		lpPath:  filepath.Join(dir, "model.lp"),
	}
	f, err := os.Create(r.lpPath)
	if err != nil {
		r.cleanup()
		return nil, apperror.Wrap(err, apperror.CodeSolverError, "create lp file")
	}
	if err := model.WriteLP(f); err != nil {
		f.Close()
		r.cleanup()
		return nil, err
	}
	if err := f.Close(); err != nil {
		r.cleanup()
		return nil, apperror.Wrap(err, apperror.CodeSolverError, "write lp file")
	}
	return r, nil
}

// path возвращает путь файла в рабочем каталоге
func (r *run) path(name string) string {
	return filepath.Join(r.dir, name)
}

// exec запускает бинарник солвера и возвращает его стандартный вывод.
// Ненулевой код выхода не считается ошибкой, статус решается по выводу
// и файлу решения.
func (r *run) exec(ctx context.Context, bin string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, bin, args...)
	out, err := cmd.CombinedOutput()
	if r.opts.CaptureLogs {
		r.saveLog(out)
	}
	if ctx.Err() != nil {
		return string(out), ctx.Err()
	}
	if err != nil {
		if _, isExit := err.(*exec.ExitError); !isExit {
			return string(out), apperror.Wrap(err, apperror.CodeSolverError,
				fmt.Sprintf("run %s", bin))
		}
	}
	return string(out), nil
}

// saveLog сохраняет вывод солвера в каталог логов
func (r *run) saveLog(out []byte) {
	dir := r.opts.LogDir
	if dir == "" {
		dir = r.dir
	} else if err := os.MkdirAll(dir, 0o755); err != nil {
		return
	}
	name := fmt.Sprintf("%s_%s.log", r.backend, time.Now().Format("20060102_150405"))
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, out, 0o644); err == nil {
		r.logPath = path
	}
}

// cleanup удаляет временный каталог запуска
func (r *run) cleanup() {
	os.RemoveAll(r.dir)
}

// binaryAvailable проверяет наличие бинарника в PATH
func binaryAvailable(bin string) bool {
	_, err := exec.LookPath(bin)
	return err == nil
}

// valuesFromSolution переводит значения по LP-именам в срез по индексам
// переменных модели. Отсутствующие в решении переменные равны нулю.
func valuesFromSolution(model *milp.Model, byName map[string]float64) []float64 {
	values := make([]float64, model.NumVars())
	for name, v := range byName {
		if variable, ok := model.VarByLPName(name); ok {
			values[variable.Index] = v
		}
	}
	return values
}
