package imagefetcher

import (
	"github.com/jamesrr39/goutil/errorsx"
	"github.com/vincent-petithory/dataurl"
)

// decodeDataURI returns the payload of a "data:[<mediatype>][;base64],<data>" URI
func decodeDataURI(uri string) ([]byte, errorsx.Error) {
	decoded, err := dataurl.DecodeString(uri)
	if err != nil {
		return nil, errorsx.Wrap(err)
	}

	return decoded.Data, nil
}
