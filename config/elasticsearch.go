package config

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/viper"
)

// DEFAULT_CREDENTIALS_FILE is read from the working directory unless --config says otherwise.
const DEFAULT_CREDENTIALS_FILE = "config.ini"

const elasticsearchSection = "elasticsearch"

// ElasticsearchConfig holds the connection credentials of the [elasticsearch] section.
type ElasticsearchConfig struct {
	Host               string
	Port               int
	Scheme             string
	Username           string
	Password           string
	InsecureSkipVerify bool
}

// Address returns the node URL built from scheme, host and port.
func (c *ElasticsearchConfig) Address() string {
	return fmt.Sprintf("%s://%s:%d", c.Scheme, c.Host, c.Port)
}

// ConfigurationError reports a missing or malformed credentials file, section or key.
type ConfigurationError struct {
	Path    string
	Section string
	Key     string
	Err     error
}

func (e *ConfigurationError) Error() string {
	var b strings.Builder
	b.WriteString("configuration error")
	if e.Path != "" {
		fmt.Fprintf(&b, " in %s", e.Path)
	}
	if e.Section != "" {
		fmt.Fprintf(&b, " [%s]", e.Section)
	}
	if e.Key != "" {
		fmt.Fprintf(&b, " key %q", e.Key)
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

// LoadElasticsearch reads the [elasticsearch] section of the INI file at path.
func LoadElasticsearch(path string) (*ElasticsearchConfig, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("ini")
	if err := v.ReadInConfig(); err != nil {
		return nil, &ConfigurationError{Path: path, Err: err}
	}

	if v.Sub(elasticsearchSection) == nil {
		return nil, &ConfigurationError{
			Path:    path,
			Section: elasticsearchSection,
			Err:     fmt.Errorf("no section: %q", elasticsearchSection),
		}
	}

	values := make(map[string]string, 5)
	for _, key := range []string{"host", "port", "scheme", "username", "password"} {
		full := elasticsearchSection + "." + key
		if !v.IsSet(full) {
			return nil, &ConfigurationError{
				Path:    path,
				Section: elasticsearchSection,
				Key:     key,
				Err:     fmt.Errorf("no option %q", key),
			}
		}
		values[key] = strings.TrimSpace(v.GetString(full))
	}

	port, err := strconv.Atoi(values["port"])
	if err != nil {
		return nil, &ConfigurationError{Path: path, Section: elasticsearchSection, Key: "port", Err: err}
	}
	if values["host"] == "" {
		return nil, &ConfigurationError{Path: path, Section: elasticsearchSection, Key: "host", Err: fmt.Errorf("empty value")}
	}

	scheme := strings.ToLower(values["scheme"])
	if scheme != "http" && scheme != "https" {
		return nil, &ConfigurationError{Path: path, Section: elasticsearchSection, Key: "scheme", Err: fmt.Errorf("unsupported scheme %q", values["scheme"])}
	}

	return &ElasticsearchConfig{
		Host:               values["host"],
		Port:               port,
		Scheme:             scheme,
		Username:           values["username"],
		Password:           values["password"],
		InsecureSkipVerify: v.GetBool(elasticsearchSection + ".insecure_skip_verify"),
	}, nil
}
