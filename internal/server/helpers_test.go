package server

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHumanizeParam(t *testing.T) {
	assert.Equal(t, "ID", humanizeParam("id"))
	assert.Equal(t, "problem ID", humanizeParam("problemId"))
	assert.Equal(t, "tech stack ID", humanizeParam("techStackId"))
	assert.Equal(t, "type", humanizeParam("type"))
}

func TestSplitCamel(t *testing.T) {
	assert.Equal(t, []string{"answer"}, splitCamel("answer"))
	assert.Equal(t, []string{"tech", "Stack"}, splitCamel("techStack"))
}
