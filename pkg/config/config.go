package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/ghodss/yaml"
	"github.com/spf13/afero"

	"github.com/sidkik/reverso/pkg/errors"
)

// parseConfigErrTemplate is a template for when reverso fails to parse a
// configuration file. This can happen for a multitude of reasons, including
// extraneous fields and incorrect field types. However, the parsers construct
// errors in a way that loses context, and so we can only pass the error
// message on.
const parseConfigErrTemplate = "Configuration file could not be parsed. " +
	"Please review %q.\n" +
	"Common pitfalls include:\n" +
	" - Using the wrong types for fields\n" +
	" - Having extra fields inside the config file\n\n" +
	"For reference, here is the error from the parser:\n" +
	"%s"

type configInterface interface {
	getVersion() string
}

type incompatibleVersionError struct {
	path, exp, actual string
}

func (err incompatibleVersionError) Error() string {
	return err.FriendlyMessage()
}

func (err incompatibleVersionError) FriendlyMessage() string {
	return fmt.Sprintf("The configuration file %q is incompatible "+
		"with this version of reverso.\n"+
		"Expected version %q, but got %q.", err.path, err.exp, err.actual)
}

// format is a configuration file syntax.
type format int

const (
	formatYAML format = iota
	formatTOML
)

func formatOf(path string) (format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml", ".json":
		return formatYAML, nil
	case ".toml":
		return formatTOML, nil
	default:
		return 0, errors.NewFriendlyError("Unsupported configuration file %q.\n"+
			"The file name must end in .yaml, .yml, .json, or .toml.", path)
	}
}

func parseConfig(path string, config configInterface, expVersion string) error {
	configFormat, err := formatOf(path)
	if err != nil {
		return err
	}

	configBytes, err := afero.ReadFile(fs, path)
	if err != nil {
		if isPathNotFoundError(err) {
			return errors.FileNotFound{Path: path}
		}
		return errors.WithContext(err, "read file")
	}

	if configFormat == formatTOML {
		return parseTOML(path, configBytes, config, expVersion)
	}

	err = yaml.Unmarshal(configBytes, config)
	if err != nil {
		return errors.NewFriendlyError(parseConfigErrTemplate, path, err)
	}

	if config.getVersion() != expVersion {
		return incompatibleVersionError{path, expVersion, config.getVersion()}
	}

	// Do a strict unmarshal to check for any extra fields. We do a non-strict
	// unmarshal first so that we can catch version errors before erroring on
	// extra fields.
	err = yaml.UnmarshalStrict(configBytes, config, yaml.DisallowUnknownFields)
	if err != nil {
		return errors.NewFriendlyError(parseConfigErrTemplate, path, err)
	}
	return nil
}

func parseTOML(path string, configBytes []byte, config configInterface, expVersion string) error {
	md, err := toml.Decode(string(configBytes), config)
	if err != nil {
		return errors.NewFriendlyError(parseConfigErrTemplate, path, err)
	}

	if config.getVersion() != expVersion {
		return incompatibleVersionError{path, expVersion, config.getVersion()}
	}

	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		var keys []string
		for _, key := range undecoded {
			keys = append(keys, key.String())
		}
		sort.Strings(keys)
		return errors.NewFriendlyError(parseConfigErrTemplate, path,
			fmt.Sprintf("unknown fields: %s", strings.Join(keys, ", ")))
	}
	return nil
}

func isPathNotFoundError(err error) bool {
	if fileErr, ok := err.(*os.PathError); ok && fileErr.Op == "open" {
		return os.IsNotExist(fileErr.Err)
	}
	return false
}
