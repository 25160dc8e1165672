// Command musgen regenerates core/records_mus.gen.go, the mus-go
// serializers for the records kept in badger. Run it through go generate
// in the core package.
package main

import (
	"os"
	"reflect"
	"strings"

	musgen "github.com/mus-format/musgen-go/mus"
	genops "github.com/mus-format/musgen-go/options/generate"
	structops "github.com/mus-format/musgen-go/options/struct"
	typeops "github.com/mus-format/musgen-go/options/type"
	"github.com/poiesic/newsroom/core"
)

const output = "./core/records_mus.gen.go"

func main() {
	if err := run(); err != nil {
		panic(err)
	}
}

func run() error {
	cwd, err := os.Getwd()
	if err != nil {
		return err
	}
	// go generate runs from core; write relative to the module root
	if strings.HasSuffix(cwd, "core") {
		if err := os.Chdir(".."); err != nil {
			return err
		}
	}

	g, err := musgen.NewCodeGenerator(
		genops.WithPkgPath("github.com/poiesic/newsroom/core"),
	)
	if err != nil {
		return err
	}

	g.AddDefinedType(reflect.TypeFor[core.ID]())
	g.AddDefinedType(reflect.TypeFor[core.Vector]())

	// Title through ImageURL, all strings
	if err := g.AddStruct(reflect.TypeFor[core.Article]()); err != nil {
		return err
	}

	// FetchedAt as Unix microseconds, matching the time index keys
	err = g.AddStruct(reflect.TypeFor[core.Batch](),
		structops.WithField(),
		structops.WithField(typeops.WithTimeUnit(typeops.Micro)),
		structops.WithField(),
		structops.WithField())
	if err != nil {
		return err
	}

	bs, err := g.Generate()
	if err != nil {
		return err
	}
	return os.WriteFile(output, bs, 0644)
}
