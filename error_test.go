package bfilter_test

import (
	"fmt"
	"testing"

	"github.com/advdv/bfilter"
	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/require"
)

func TestErrorCode(t *testing.T) {
	err1 := bfilter.NewError(bfilter.CodeBadRequest, errors.New("foo"))
	require.Equal(t, bfilter.Code(400), err1.Code())
	require.Equal(t, bfilter.CodeBadRequest, bfilter.CodeOf(err1))
	require.Equal(t, "Bad Request: foo", err1.Error())
	require.False(t, bfilter.IsRejection(err1))

	require.Equal(t, bfilter.CodeUnknown, bfilter.CodeOf(errors.New("bar")))
	require.Equal(t, "Unknown: rab", bfilter.NewError(900, errors.New("rab")).Error())
}

func TestRejectKinds(t *testing.T) {
	for kind, code := range map[bfilter.Kind]bfilter.Code{
		bfilter.KindBodyUnavailable:  bfilter.CodeBadRequest,
		bfilter.KindStreamFailure:    bfilter.CodeBadRequest,
		bfilter.KindDecodeFailure:    bfilter.CodeBadRequest,
		bfilter.KindMissingHeader:    bfilter.CodeBadRequest,
		bfilter.KindInvalidParam:     bfilter.CodeBadRequest,
		bfilter.KindBodyTooLarge:     bfilter.CodeRequestEntityTooLarge,
		bfilter.KindNotFound:         bfilter.CodeNotFound,
		bfilter.KindMethodNotAllowed: bfilter.CodeMethodNotAllowed,
		bfilter.KindUnknown:          bfilter.CodeInternalServerError,
	} {
		t.Run(kind.String(), func(t *testing.T) {
			cause := errors.New("cause")
			err := fmt.Errorf("wrapped: %w", bfilter.Reject(kind, cause))

			require.Equal(t, code, bfilter.CodeOf(err))
			require.Equal(t, kind, bfilter.KindOf(err))
			require.ErrorIs(t, err, cause)
		})
	}

	require.Equal(t, bfilter.KindUnknown, bfilter.KindOf(errors.New("plain")))
	require.True(t, bfilter.IsRejection(bfilter.Reject(bfilter.KindDecodeFailure, nil)))
	require.Equal(t, "Bad Request: decode_failure", bfilter.Reject(bfilter.KindDecodeFailure, nil).Error())
}
