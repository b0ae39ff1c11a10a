// Copyright 2026 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package plugin

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/pflag"
)

type PluginOptionType int

const (
	PluginOptionTypeString PluginOptionType = iota + 1
	PluginOptionTypeBool
	PluginOptionTypeInt
	PluginOptionTypeUint
)

type PluginOption struct {
	DefaultValue any
	Dest         any
	Name         string
	Description  string
	Type         PluginOptionType
}

func (p *PluginOption) assign(value any) error {
	if p.Dest == nil {
		return fmt.Errorf("nil destination for option %s", p.Name)
	}
	switch p.Type {
	case PluginOptionTypeString:
		v, ok := value.(string)
		if !ok {
			return fmt.Errorf("invalid type for option %s: expected string", p.Name)
		}
		dest, ok := p.Dest.(*string)
		if !ok || dest == nil {
			return fmt.Errorf("invalid destination type for option %s: expected *string", p.Name)
		}
		*dest = v
	case PluginOptionTypeBool:
		v, ok := value.(bool)
		if !ok {
			return fmt.Errorf("invalid type for option %s: expected bool", p.Name)
		}
		dest, ok := p.Dest.(*bool)
		if !ok || dest == nil {
			return fmt.Errorf("invalid destination type for option %s: expected *bool", p.Name)
		}
		*dest = v
	case PluginOptionTypeInt:
		v, ok := value.(int)
		if !ok {
			return fmt.Errorf("invalid type for option %s: expected int", p.Name)
		}
		dest, ok := p.Dest.(*int)
		if !ok || dest == nil {
			return fmt.Errorf("invalid destination type for option %s: expected *int", p.Name)
		}
		*dest = v
	case PluginOptionTypeUint:
		dest, ok := p.Dest.(*uint64)
		if !ok || dest == nil {
			return fmt.Errorf("invalid destination type for option %s: expected *uint64", p.Name)
		}
		switch tv := value.(type) {
		case uint64:
			*dest = tv
		case int:
			if tv < 0 {
				return fmt.Errorf("invalid value for option %s: negative int", p.Name)
			}
			*dest = uint64(tv)
		default:
			return fmt.Errorf("invalid type for option %s: expected uint64 or int", p.Name)
		}
	default:
		return fmt.Errorf("unknown plugin option type %d for option %s", p.Type, p.Name)
	}
	return nil
}

// assignString parses a string value (from an env var or a config file)
// according to the option type
func (p *PluginOption) assignString(value string) error {
	switch p.Type {
	case PluginOptionTypeString:
		return p.assign(value)
	case PluginOptionTypeBool:
		v, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid value for option %s: %w", p.Name, err)
		}
		return p.assign(v)
	case PluginOptionTypeInt:
		v, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid value for option %s: %w", p.Name, err)
		}
		return p.assign(v)
	case PluginOptionTypeUint:
		v, err := strconv.ParseUint(value, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid value for option %s: %w", p.Name, err)
		}
		return p.assign(v)
	default:
		return fmt.Errorf("unknown plugin option type %d for option %s", p.Type, p.Name)
	}
}

func (p *PluginOption) AddToFlagSet(fs *pflag.FlagSet, pluginType string, pluginName string) error {
	flagName := fmt.Sprintf("%s-%s-%s", pluginType, pluginName, p.Name)
	switch p.Type {
	case PluginOptionTypeString:
		dest, ok := p.Dest.(*string)
		def, _ := p.DefaultValue.(string)
		if !ok {
			return fmt.Errorf("invalid destination for option %s", flagName)
		}
		fs.StringVar(dest, flagName, def, p.Description)
	case PluginOptionTypeBool:
		dest, ok := p.Dest.(*bool)
		def, _ := p.DefaultValue.(bool)
		if !ok {
			return fmt.Errorf("invalid destination for option %s", flagName)
		}
		fs.BoolVar(dest, flagName, def, p.Description)
	case PluginOptionTypeInt:
		dest, ok := p.Dest.(*int)
		def, _ := p.DefaultValue.(int)
		if !ok {
			return fmt.Errorf("invalid destination for option %s", flagName)
		}
		fs.IntVar(dest, flagName, def, p.Description)
	case PluginOptionTypeUint:
		dest, ok := p.Dest.(*uint64)
		def, _ := p.DefaultValue.(uint64)
		if !ok {
			return fmt.Errorf("invalid destination for option %s", flagName)
		}
		fs.Uint64Var(dest, flagName, def, p.Description)
	default:
		return fmt.Errorf("unknown plugin option type %d for option %s", p.Type, flagName)
	}
	return nil
}

// EnvVarName returns the environment variable that overrides this option,
// e.g. MULTISIG_DATABASE_BLOB_BADGER_DATA_DIR
func (p *PluginOption) EnvVarName(pluginType string, pluginName string) string {
	ret := fmt.Sprintf(
		"MULTISIG_DATABASE_%s_%s_%s",
		pluginType,
		pluginName,
		p.Name,
	)
	return strings.ToUpper(strings.ReplaceAll(ret, "-", "_"))
}

// PopulateCmdlineOptions adds a flag for each option of each registered plugin
func PopulateCmdlineOptions(fs *pflag.FlagSet) error {
	registryMutex.RLock()
	defer registryMutex.RUnlock()
	for i := range pluginEntries {
		entry := &pluginEntries[i]
		for j := range entry.Options {
			if err := entry.Options[j].AddToFlagSet(fs, PluginTypeName(entry.Type), entry.Name); err != nil {
				return err
			}
		}
	}
	return nil
}

// ProcessEnvVars applies plugin option overrides from the environment
func ProcessEnvVars() error {
	registryMutex.RLock()
	defer registryMutex.RUnlock()
	for i := range pluginEntries {
		entry := &pluginEntries[i]
		for j := range entry.Options {
			opt := &entry.Options[j]
			val, ok := os.LookupEnv(opt.EnvVarName(PluginTypeName(entry.Type), entry.Name))
			if !ok {
				continue
			}
			if err := opt.assignString(val); err != nil {
				return err
			}
		}
	}
	return nil
}

// ProcessConfig applies plugin options from a parsed config file. The map is
// keyed by plugin type name, then plugin name, then option name.
func ProcessConfig(pluginConfig map[string]map[string]map[string]any) error {
	registryMutex.RLock()
	defer registryMutex.RUnlock()
	for i := range pluginEntries {
		entry := &pluginEntries[i]
		typeConfig, ok := pluginConfig[PluginTypeName(entry.Type)]
		if !ok {
			continue
		}
		optsConfig, ok := typeConfig[entry.Name]
		if !ok {
			continue
		}
		for j := range entry.Options {
			opt := &entry.Options[j]
			val, ok := optsConfig[opt.Name]
			if !ok {
				continue
			}
			var err error
			switch v := val.(type) {
			case string:
				err = opt.assignString(v)
			case int64:
				err = opt.assignString(strconv.FormatInt(v, 10))
			default:
				err = opt.assignString(fmt.Sprint(v))
			}
			if err != nil {
				return err
			}
		}
	}
	return nil
}
