package exportzenodo

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/rdmhub/rdmbackend/services/oauth/oauthvault"
)

const (
	httpClientTimeout = 10 * time.Second
)

//go:generate mockgen -source=depositor.go -package exportzenodo -destination depositor_mock.go Depositor,TokenRefresher
type Depositor interface {
	CreateDeposition(ctx context.Context, accessToken string, metadata DepositionMetadata) (Deposition, error)
	GetDeposition(ctx context.Context, accessToken string, depositionID string) (Deposition, error)
	PublishDeposition(ctx context.Context, accessToken string, depositionID string) (Deposition, error)
}

// TokenRefresher performs the single silent refresh attempt on behalf of this provider.
type TokenRefresher interface {
	RefreshToken(c context.Context, providerName string, userUID string) (oauthvault.Token, error)
}

// zenodoDepositor is stateless: one instance serves all requests, the
// caller provides the token of the user on whose behalf it acts.
type zenodoDepositor struct {
	baseURL string
}

func NewDepositor(baseURL string) *zenodoDepositor {
	return &zenodoDepositor{
		baseURL: baseURL,
	}
}

func (d *zenodoDepositor) CreateDeposition(ctx context.Context, accessToken string, metadata DepositionMetadata) (Deposition, error) {
	url := d.baseURL + "/api/deposit/depositions"

	requestBody, err := json.Marshal(depositionRequest{Metadata: metadata})
	if err != nil {
		return Deposition{}, fmt.Errorf("error marshalling deposition request: %s", err)
	}

	httpRespCode, respBody, err := d.send(ctx, http.MethodPost, url, accessToken, requestBody)
	if err != nil {
		return Deposition{}, fmt.Errorf("error creating deposition: %s", err)
	}

	if httpRespCode != http.StatusCreated {
		return Deposition{}, RemoteServiceError{
			Operation: "create deposition",
			Status:    httpRespCode,
			Body:      string(respBody),
		}
	}

	resp := Deposition{}
	err = json.Unmarshal(respBody, &resp)
	if err != nil {
		return Deposition{}, fmt.Errorf("error parsing deposition response: %s", err)
	}

	return resp, nil
}

func (d *zenodoDepositor) GetDeposition(ctx context.Context, accessToken string, depositionID string) (Deposition, error) {
	url := fmt.Sprintf("%s/api/deposit/depositions/%s", d.baseURL, depositionID)

	httpRespCode, respBody, err := d.send(ctx, http.MethodGet, url, accessToken, nil)
	if err != nil {
		return Deposition{}, fmt.Errorf("error fetching deposition %s: %s", depositionID, err)
	}

	if httpRespCode != http.StatusOK {
		return Deposition{}, RemoteServiceError{
			Operation: "get deposition",
			Status:    httpRespCode,
			Body:      string(respBody),
		}
	}

	resp := Deposition{}
	err = json.Unmarshal(respBody, &resp)
	if err != nil {
		return Deposition{}, fmt.Errorf("error parsing deposition response: %s", err)
	}

	return resp, nil
}

func (d *zenodoDepositor) PublishDeposition(ctx context.Context, accessToken string, depositionID string) (Deposition, error) {
	url := fmt.Sprintf("%s/api/deposit/depositions/%s/actions/publish", d.baseURL, depositionID)

	httpRespCode, respBody, err := d.send(ctx, http.MethodPost, url, accessToken, nil)
	if err != nil {
		return Deposition{}, fmt.Errorf("error publishing deposition %s: %s", depositionID, err)
	}

	// 202 is documented, some instances answer 200 or 201
	if httpRespCode != http.StatusAccepted && httpRespCode != http.StatusOK && httpRespCode != http.StatusCreated {
		return Deposition{}, RemoteServiceError{
			Operation: "publish deposition",
			Status:    httpRespCode,
			Body:      string(respBody),
		}
	}

	resp := Deposition{}
	err = json.Unmarshal(respBody, &resp)
	if err != nil {
		return Deposition{}, fmt.Errorf("error parsing deposition response: %s", err)
	}

	return resp, nil
}

func (d *zenodoDepositor) send(ctx context.Context, method string, url string, accessToken string, body []byte) (int, []byte, error) {
	httpReq, err := http.NewRequestWithContext(ctx, method, url, bytes.NewReader(body))
	if err != nil {
		return 0, []byte{}, fmt.Errorf("error creating http request for %s %s: %s", method, url, err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+accessToken)

	httpClient := &http.Client{
		Timeout: httpClientTimeout,
	}
	httpResp, err := httpClient.Do(httpReq)
	if err != nil {
		return 0, []byte{}, fmt.Errorf("error calling %s %s: %s", method, url, err)
	}
	defer httpResp.Body.Close()

	log.Printf("HTTP call to deposit api: %s %s -> %d", method, url, httpResp.StatusCode)

	respPayload, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return 0, []byte{}, fmt.Errorf("error reading response %s %s: %s", method, url, err)
	}

	return httpResp.StatusCode, respPayload, nil
}
