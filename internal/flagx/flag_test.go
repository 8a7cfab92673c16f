package flagx

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFilterArgs(t *testing.T) {
	allowed := []string{"-a", "-i"}

	tests := []struct {
		name string
		args []string
		want []string
	}{
		{"separate value", []string{"-a", "127.0.0.1:1", "-x", "1"}, []string{"-a", "127.0.0.1:1"}},
		{"equals form", []string{"-i=5", "-z=1"}, []string{"-i=5"}},
		{"value looks like flag", []string{"-a", "-i", "3"}, []string{"-a", "-i", "3"}},
		{"unknown only", []string{"-x", "1", "positional"}, []string{}},
		{"trailing flag without value", []string{"-i"}, []string{"-i"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FilterArgs(tt.args, allowed))
		})
	}
}

func TestConfigPath(t *testing.T) {
	assert.Equal(t, "a.json", ConfigPath([]string{"-c", "a.json", "-a", "x"}))
	assert.Equal(t, "b.json", ConfigPath([]string{"-config=b.json"}))
	assert.Equal(t, "", ConfigPath([]string{"-a", "x"}))
}

func TestJsonConfigFlags_ReadsProcessArgs(t *testing.T) {
	orig := os.Args
	t.Cleanup(func() { os.Args = orig })

	os.Args = []string{"bin", "-c", "client.json"}
	assert.Equal(t, "client.json", JsonConfigFlags())
}
