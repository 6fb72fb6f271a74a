// Package script runs Risor correction scripts against the ingested model.
//
// A script sees four globals:
//
//	retype(struct, property, type)  replace a property type ("float", "Object", "Collection[Object]")
//	type_of(struct, property)       current type expression of a property
//	structs()                       every ingested struct identifier
//	log(message)                    write to the stubgen log
//
// For example:
//
//	for _, s := range structs() {
//	    if s == "RenderSettings" { retype(s, "fps_base", "float") }
//	}
package script

import (
	"context"
	"os"

	"github.com/risor-io/risor"
	"github.com/risor-io/risor/object"
	"go.uber.org/zap"

	"github.com/teranos/stubgen/errors"
	"github.com/teranos/stubgen/logger"
)

// Target is the model surface a script may touch.
type Target interface {
	Retype(structID, property, typeExpr string) error
	TypeOf(structID, property string) (string, error)
	Structs() []string
}

// Runner evaluates scripts against a target.
type Runner struct {
	target Target
	log    *zap.SugaredLogger

	errs []error
}

// NewRunner creates a runner. A nil log uses the component logger.
func NewRunner(target Target, log *zap.SugaredLogger) *Runner {
	if log == nil {
		log = logger.ComponentLogger("typegen.script")
	}
	return &Runner{target: target, log: log}
}

// LoadFile reads and runs the script at path.
func (r *Runner) LoadFile(ctx context.Context, path string) error {
	src, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrapf(err, "failed to read correction script %s", path)
	}
	return r.Run(ctx, path, string(src))
}

// Run evaluates src. The first failed model call is returned even when the
// script itself carried on.
func (r *Runner) Run(ctx context.Context, label, src string) error {
	r.errs = nil

	globals := map[string]any{
		"retype":  r.retypeBuiltin(),
		"type_of": r.typeOfBuiltin(),
		"structs": r.structsBuiltin(),
		"log":     r.logBuiltin(label),
	}
	var opts []risor.Option
	for name, val := range globals {
		opts = append(opts, risor.WithGlobal(name, val))
	}

	_, err := risor.Eval(ctx, src, opts...)
	if len(r.errs) > 0 {
		return errors.Wrapf(r.errs[0], "correction script %s", label)
	}
	if err != nil {
		return errors.Wrapf(err, "correction script %s", label)
	}
	return nil
}

func (r *Runner) fail(err error) object.Object {
	r.errs = append(r.errs, err)
	return object.NewError(err)
}

func (r *Runner) retypeBuiltin() *object.Builtin {
	return object.NewBuiltin("retype", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) != 3 {
			return object.NewArgsError("retype", 3, len(args))
		}
		strs, errObj := stringArgs("retype", args)
		if errObj != nil {
			return errObj
		}
		if err := r.target.Retype(strs[0], strs[1], strs[2]); err != nil {
			return r.fail(err)
		}
		r.log.Debugw("retyped property",
			logger.FieldStruct, strs[0], "property", strs[1], "type", strs[2])
		return object.Nil
	})
}

func (r *Runner) typeOfBuiltin() *object.Builtin {
	return object.NewBuiltin("type_of", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) != 2 {
			return object.NewArgsError("type_of", 2, len(args))
		}
		strs, errObj := stringArgs("type_of", args)
		if errObj != nil {
			return errObj
		}
		expr, err := r.target.TypeOf(strs[0], strs[1])
		if err != nil {
			return r.fail(err)
		}
		return object.NewString(expr)
	})
}

func (r *Runner) structsBuiltin() *object.Builtin {
	return object.NewBuiltin("structs", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) != 0 {
			return object.NewArgsError("structs", 0, len(args))
		}
		ids := r.target.Structs()
		items := make([]object.Object, len(ids))
		for i, id := range ids {
			items[i] = object.NewString(id)
		}
		return object.NewList(items)
	})
}

func (r *Runner) logBuiltin(label string) *object.Builtin {
	return object.NewBuiltin("log", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) != 1 {
			return object.NewArgsError("log", 1, len(args))
		}
		msg, ok := args[0].(*object.String)
		if !ok {
			r.log.Infow(args[0].Inspect(), "script", label)
			return object.Nil
		}
		r.log.Infow(msg.Value(), "script", label)
		return object.Nil
	})
}

func stringArgs(name string, args []object.Object) ([]string, object.Object) {
	out := make([]string, len(args))
	for i, a := range args {
		s, ok := a.(*object.String)
		if !ok {
			return nil, object.Errorf("%s: argument %d must be a string, got %s", name, i+1, a.Type())
		}
		out[i] = s.Value()
	}
	return out, nil
}
