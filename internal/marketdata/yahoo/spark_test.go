package yahoo_test

import (
	"fmt"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"mercadash/internal/marketdata/yahoo"
)

func sparkBody(symbols ...string) string {
	results := make([]string, 0, len(symbols))
	for i, sym := range symbols {
		base := 100 * float64(i+1)
		results = append(results, fmt.Sprintf(`{
			"symbol": %q,
			"response": [{
				"meta": {"symbol": %q},
				"timestamp": [1735776000, 1735862400],
				"indicators": {"quote": [{"close": [%g, %g]}]}
			}]
		}`, sym, sym, base, base+10))
	}
	return fmt.Sprintf(`{"spark":{"result":[%s],"error":null}}`, strings.Join(results, ","))
}

func TestBatchHistory_SingleBatchedRequest(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	httpClient := NewMockHTTPClient(ctrl)

	// one spark call for the whole list, never one call per symbol
	httpClient.EXPECT().
		Do(gomock.Any()).
		DoAndReturn(func(req *http.Request) (*http.Response, error) {
			require.Contains(t, req.URL.Path, "/v8/finance/spark")
			require.Equal(t, "AAPL,MSFT,NVDA", req.URL.Query().Get("symbols"))
			return jsonResponse(http.StatusOK, sparkBody("AAPL", "MSFT", "NVDA")), nil
		}).
		Times(1)

	client := yahoo.NewClient(yahoo.WithHTTPClient(httpClient))

	panel, err := client.BatchHistory(t.Context(), []string{"AAPL", "MSFT", "NVDA"}, "1mo")
	require.NoError(t, err)
	require.Len(t, panel, 3)
	require.Equal(t, 110.0, panel["AAPL"][1].Close)
}

func TestBatchHistory_ChunksLargeLists(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	httpClient := NewMockHTTPClient(ctrl)

	httpClient.EXPECT().
		Do(gomock.Any()).
		DoAndReturn(func(req *http.Request) (*http.Response, error) {
			symbols := strings.Split(req.URL.Query().Get("symbols"), ",")
			require.LessOrEqual(t, len(symbols), 2)
			return jsonResponse(http.StatusOK, sparkBody(symbols...)), nil
		}).
		Times(2)

	client := yahoo.NewClient(
		yahoo.WithHTTPClient(httpClient),
		yahoo.WithMaxSymbolsPerRequest(2),
	)

	panel, err := client.BatchHistory(t.Context(), []string{"AAPL", "MSFT", "NVDA"}, "1mo")
	require.NoError(t, err)
	require.Len(t, panel, 3)
}

func TestBatchHistory_MissingSymbolsAreSkipped(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	httpClient := NewMockHTTPClient(ctrl)
	httpClient.EXPECT().
		Do(gomock.Any()).
		Return(jsonResponse(http.StatusOK, sparkBody("AAPL")), nil).
		Times(1)

	client := yahoo.NewClient(yahoo.WithHTTPClient(httpClient))

	panel, err := client.BatchHistory(t.Context(), []string{"AAPL", "DELISTED"}, "1mo")
	require.NoError(t, err)
	require.Len(t, panel, 1)
	require.Contains(t, panel, "AAPL")
}

func TestBatchHistory_TotalFailureReturnsError(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	httpClient := NewMockHTTPClient(ctrl)
	httpClient.EXPECT().
		Do(gomock.Any()).
		Return(jsonResponse(http.StatusInternalServerError, `boom`), nil).
		Times(1)

	client := yahoo.NewClient(yahoo.WithHTTPClient(httpClient))

	_, err := client.BatchHistory(t.Context(), []string{"AAPL", "MSFT"}, "1mo")
	require.Error(t, err)
}

func TestBatchHistory_EmptyListShortCircuits(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	httpClient := NewMockHTTPClient(ctrl)
	httpClient.EXPECT().Do(gomock.Any()).Times(0)

	client := yahoo.NewClient(yahoo.WithHTTPClient(httpClient))

	panel, err := client.BatchHistory(t.Context(), nil, "1mo")
	require.NoError(t, err)
	require.Empty(t, panel)
}
