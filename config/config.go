// Package config reads the YAML profile shared by the command line and the
// storage service.
package config

import (
	"os"
	"path"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

const DefaultProfile = "conf.yaml"
const TempleteProfile = `app:
  # directory holding lsabe.pp, lsabe.msk, authority and user keys
  keypath: "./keys"
  # directory holding the ciphertext database
  datapath: "./data"
  # keyword capacity of every index, fixed per deployment
  maxkeywords: 10
  # storage service address used by encrypt/search, empty means local
  url: ""
  # storage service listening port
  port: 15010
  # log directory, empty logs to stderr only
  logdir: "./log"
  # log level: debug, info, warn, error
  loglevel: "info"
  # concurrent searches per request
  workers: 4`

type App struct {
	Keypath     string `name:"keypath" yaml:"keypath"`
	Datapath    string `name:"datapath" yaml:"datapath"`
	Maxkeywords int    `name:"maxkeywords" yaml:"maxkeywords"`
	Url         string `name:"url" yaml:"url"`
	Port        uint16 `name:"port" yaml:"port"`
	Logdir      string `name:"logdir" yaml:"logdir"`
	Loglevel    string `name:"loglevel" yaml:"loglevel"`
	Workers     int    `name:"workers" yaml:"workers"`
}

type Confile struct {
	App `yaml:"app"`
}

// NewConfigFile returns the defaults of TempleteProfile.
func NewConfigFile() *Confile {
	return &Confile{App: App{
		Keypath:     "./keys",
		Datapath:    "./data",
		Maxkeywords: 10,
		Port:        15010,
		Logdir:      "./log",
		Loglevel:    "info",
		Workers:     4,
	}}
}

// Parse overlays the profile at fpath on the current values.
func (c *Confile) Parse(fpath string) error {
	fstat, err := os.Stat(fpath)
	if err != nil {
		return err
	}
	if fstat.IsDir() {
		return errors.Errorf("The '%v' is not a file", fpath)
	}
	v := viper.New()
	v.SetConfigFile(fpath)
	v.SetConfigType(path.Ext(fpath)[1:])

	err = v.ReadInConfig()
	if err != nil {
		return errors.Errorf("[ReadInConfig] %v", err)
	}
	err = v.Unmarshal(c)
	if err != nil {
		return errors.Errorf("[Unmarshal] %v", err)
	}
	return c.Check()
}

func (c *Confile) Check() error {
	if c.Keypath == "" {
		return errors.New("'keypath' can not be empty")
	}
	if c.Datapath == "" {
		return errors.New("'datapath' can not be empty")
	}
	if c.Maxkeywords < 1 {
		return errors.Errorf("'maxkeywords' must be positive: %d", c.Maxkeywords)
	}
	if c.Port < 1024 {
		return errors.Errorf("prohibit the use of system reserved port: %v", c.Port)
	}
	if c.Workers < 1 {
		c.Workers = 1
	}
	return nil
}

// WriteTemplate writes TempleteProfile to fpath.
func WriteTemplate(fpath string) error {
	f, err := os.Create(fpath)
	if err != nil {
		return errors.Wrap(err, "create profile")
	}
	defer f.Close()
	if _, err = f.WriteString(TempleteProfile); err != nil {
		return errors.Wrap(err, "write profile")
	}
	return f.Sync()
}
