package xray

import (
	"xrayshim/internal/logger"
	"xrayshim/internal/policy"
	"xrayshim/internal/xray/parser"
)

// Compile turns a share-link into an engine document. Only decoding can fail;
// on error no document is returned.
func Compile(uri string, st policy.State) (*Document, error) {
	link, err := parser.Parse(uri)
	if err != nil {
		logger.Log.Debugf("Compile rejected link: %v", err)
		return nil, err
	}
	return Assemble(link, st), nil
}
