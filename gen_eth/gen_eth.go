/*
A CLI tool that turns Solidity contracts into Go code with ready-made
"etherlite.ContractType" values. Reads *.sol files through a Solidity compiler
(see https://docs.soliditylang.org), or compiler artifacts (Truffle, Hardhat,
Foundry) with "--artifact".

Installation:

	go install github.com/purelabio/etherlite/gen_eth@latest

Example usage:

	gen_eth --help
	gen_eth --out gen_contracts.go sol/Test.sol:Test
	gen_eth --artifact --out gen_contracts.go build/contracts/Test.json

To use with "go generate", include a "go:generate" comment in your source code:

	//go:generate gen_eth --out gen_contracts.go sol/Test.sol:Test

For each contract, the generated file contains the JSON ABI, the creation code
as bytes and as a hex string, a "<Name>Type" variable, and constants naming
its functions and events. The solc compiler is invoked with "--optimize".
*/
package main

import (
	"bytes"
	"encoding/json"
	"go/format"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"text/template"
	"unicode"

	"github.com/Mitranim/repr"
	"github.com/pkg/errors"
	"github.com/purelabio/etherlite"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

type options struct {
	Solc     string
	Out      string
	Pkg      string
	Self     bool
	Artifact bool
	Verbose  bool
}

// Template input for one contract.
type contractSource struct {
	Name    string
	AbiJson string
	Code    etherlite.HexBytes
	Funcs   []nameConst
	Events  []nameConst
}

type nameConst struct {
	Ident string
	Value string
}

var codeTemplate = template.Must(template.New("").
	Funcs(template.FuncMap{
		"repr": reprString,
	}).
	Parse(`
{{range .Contracts}}

const {{.Name}}AbiJson = ` + "`" + `{{.AbiJson}}` + "`" + `

var {{.Name}}Code = {{.Code | repr}}

const {{.Name}}CodeHex = ` + "`" + `{{.Code.String}}` + "`" + `

var {{.Name}}Type = {{$.Prefix}}MustNewContractType({{printf "%q" .Name}}, {{.Name}}AbiJson, {{.Name}}Code)

{{if .Funcs}}
const (
{{- range .Funcs}}
	{{.Ident}} = {{printf "%q" .Value}}
{{- end}}
)
{{end}}

{{if .Events}}
const (
{{- range .Events}}
	{{.Ident}} = {{printf "%q" .Value}}
{{- end}}
)
{{end}}

{{end}}
`))

var opts options

func main() {
	cmd := &cobra.Command{
		Use:   "gen_eth [flags] <filePath:contractName | artifact.json> ...",
		Short: "Generate Go contract types from Solidity sources or compiler artifacts",
		Long: `Specs must have the form "filePath:contractName". Examples:

	gen_eth --out=gen_contracts.go sol/Test.sol:Test
	gen_eth --out=gen_contracts.go sol/file0.sol:A sol/file0.sol:B sol/file1.sol:C

With --artifact, arguments are paths to compiler artifacts (JSON files with an
"abi" field and optional "bytecode" and "contractName").`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.Verbose {
				log.SetLevel(log.DebugLevel)
			}
			if env := os.Getenv("SOLC"); env != "" {
				opts.Solc = env
			}
			return run(args)
		},
	}

	cmd.Flags().StringVar(&opts.Solc, "solc", "solc", "Solidity compiler; can be overridden with the SOLC environment variable")
	cmd.Flags().StringVar(&opts.Out, "out", "", "output path for the generated Go file (required)")
	cmd.Flags().StringVar(&opts.Pkg, "pkg", "main", "package name for the generated code")
	cmd.Flags().BoolVar(&opts.Self, "self", false, "generate without imports or package prefixes")
	cmd.Flags().BoolVar(&opts.Artifact, "artifact", false, "read compiler artifacts instead of invoking solc")
	cmd.Flags().BoolVarP(&opts.Verbose, "verbose", "v", false, "log progress")
	_ = cmd.MarkFlagRequired("out")

	err := cmd.Execute()
	if err != nil {
		log.Fatalf("%+v", err)
	}
}

func run(specs []string) error {
	var sources []contractSource
	var err error

	if opts.Artifact {
		sources, err = readArtifacts(specs)
	} else {
		sources, err = compileSpecs(specs)
	}
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	buf.WriteString("// Code generated by gen_eth. DO NOT EDIT.\n\n")
	buf.WriteString("package " + opts.Pkg + "\n")
	if !opts.Self {
		buf.WriteString(`import "github.com/purelabio/etherlite"` + "\n")
	}

	err = codeTemplate.Execute(&buf, struct {
		Prefix    string
		Contracts []contractSource
	}{pkgPrefix(), sources})
	if err != nil {
		return errors.WithStack(err)
	}

	source, err := format.Source(buf.Bytes())
	if err != nil {
		return errors.Wrap(err, "failed to format generated code")
	}

	const readWriteMode = os.FileMode(0600)
	err = os.WriteFile(opts.Out, source, readWriteMode)
	if err != nil {
		return errors.Wrapf(err, "failed to write %q", opts.Out)
	}

	log.WithField("contracts", len(sources)).WithField("out", opts.Out).Info("generated contract types")
	return nil
}

func compileSpecs(specs []string) ([]contractSource, error) {
	// Extract file paths from <filePath>:<contractName> specs
	filePaths := []string{}
	for _, spec := range specs {
		pair := strings.Split(spec, ":")
		if len(pair) < 2 {
			return nil, errors.Errorf(`contract specs must have the form "<filePath>:<contractName>", got %q`, spec)
		}
		filePaths = append(filePaths, pair[0])
	}

	solcArgs := append([]string{"--combined-json=abi,bin", "--optimize"}, filePaths...)
	log.WithField("args", solcArgs).Debug("invoking " + opts.Solc)

	cmd := exec.Command(opts.Solc, solcArgs...)
	var buf bytes.Buffer
	cmd.Stdin = os.Stdin
	cmd.Stdout = &buf
	cmd.Stderr = os.Stderr

	err := cmd.Run()
	if err != nil {
		return nil, errors.Wrap(err, "failed to invoke solc")
	}

	defs, err := etherlite.ReadContractDefs(&buf)
	if err != nil {
		return nil, errors.Wrap(err, "failed to decode ABI output from solc")
	}

	// Pick the specified contracts, validating their presence.
	var out []contractSource
	for _, spec := range specs {
		def, ok := defs[spec]
		if !ok {
			return nil, errors.Errorf("contract %q is missing from the solc output; found contracts: %q",
				spec, sortedDefNames(defs))
		}

		typ, err := def.ContractType()
		if err != nil {
			return nil, errors.Wrapf(err, "invalid ABI of %q", spec)
		}

		src, err := newContractSource(def.ContractName, def.AbiJson, def.Code, typ)
		if err != nil {
			return nil, err
		}
		out = append(out, src)
	}
	return out, nil
}

func readArtifacts(paths []string) ([]contractSource, error) {
	var out []contractSource
	for _, path := range paths {
		typ, err := etherlite.LoadContractTypeFile(path)
		if err != nil {
			return nil, err
		}

		name := typ.Name
		if name == "" {
			name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		}

		abiJson, err := json.Marshal(typ.Abi)
		if err != nil {
			return nil, errors.WithStack(err)
		}

		src, err := newContractSource(name, string(abiJson), typ.Bytecode, typ)
		if err != nil {
			return nil, err
		}
		log.WithField("path", path).WithField("contract", name).Debug("read artifact")
		out = append(out, src)
	}
	return out, nil
}

func newContractSource(name string, abiJson string, code []byte, typ *etherlite.ContractType) (contractSource, error) {
	pretty, err := prettyJson(abiJson)
	if err != nil {
		return contractSource{}, err
	}

	out := contractSource{
		Name:    exportedIdent(name),
		AbiJson: pretty,
		Code:    etherlite.HexBytes(code),
	}

	seen := map[string]bool{}
	for _, entry := range typ.Abi {
		switch entry := entry.(type) {
		case etherlite.AbiFunction:
			ident := out.Name + "Fn" + exportedIdent(entry.Name)
			if !seen[ident] {
				seen[ident] = true
				out.Funcs = append(out.Funcs, nameConst{ident, entry.Name})
			}
		case etherlite.AbiEvent:
			ident := out.Name + "Event" + exportedIdent(entry.Name)
			if !seen[ident] {
				seen[ident] = true
				out.Events = append(out.Events, nameConst{ident, entry.Name})
			}
		}
	}
	return out, nil
}

func exportedIdent(name string) string {
	name = strings.TrimLeft(name, "_")
	if name == "" {
		return "X"
	}
	runes := []rune(name)
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}

func sortedDefNames(defs map[string]etherlite.ContractDef) []string {
	var names []string
	for name := range defs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func prettyJson(input string) (string, error) {
	var val interface{}
	err := json.Unmarshal([]byte(input), &val)
	if err != nil {
		return "", errors.WithStack(err)
	}
	pretty, err := json.MarshalIndent(val, "", "\t")
	return string(pretty), errors.WithStack(err)
}

func pkgPrefix() string {
	if opts.Self {
		return ""
	}
	return "etherlite."
}

func reprString(val interface{}) string {
	if opts.Self {
		return repr.StringC(val, repr.Config{
			PackageMap: map[string]string{
				"github.com/purelabio/etherlite": "",
			},
		})
	}
	return repr.String(val)
}
