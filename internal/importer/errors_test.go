package importer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/happon/Crawl-Server/internal/bundle"
)

func TestError(t *testing.T) {
	e := fatalError(CodeTransport, PhaseUpload, assert.AnError)
	assert.Equal(t, "E_TRANSPORT (upload): "+assert.AnError.Error(), e.Error())
	assert.ErrorIs(t, e, assert.AnError)
	assert.True(t, HasCode(e, CodeTransport))
	assert.False(t, HasCode(e, CodeParse))
	assert.False(t, HasCode(assert.AnError, CodeTransport))
}

func TestNewUploadRequest_BuildFailureIsNotTransport(t *testing.T) {
	file := &bundle.File{Name: "b.json", Content: []byte(`{}`)}

	req, perr := newUploadRequest(`mutation { uploadImport { id } }`, file)
	assert.Nil(t, req)
	require.NotNil(t, perr)
	assert.Equal(t, CodeRequest, perr.Code)
	assert.Equal(t, PhaseUpload, perr.Phase)
	assert.True(t, perr.Fatal)
	assert.False(t, HasCode(perr, CodeTransport))

	req, perr = newUploadRequest(UploadMutation, file)
	require.Nil(t, perr)
	assert.NotNil(t, req)
}
