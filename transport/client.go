/*
   Copyright 2025 The DIRPX Authors.

   Licensed under the Apache License, Version 2.0 (the "License");
   you may not use this file except in compliance with the License.
   You may obtain a copy of the License at

       http://www.apache.org/licenses/LICENSE-2.0

   Unless required by applicable law or agreed to in writing, software
   distributed under the License is distributed on an "AS IS" BASIS,
   WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
   See the License for the specific language governing permissions and
   limitations under the License.
*/

package transport

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/tidwall/gjson"
)

// FetchNames asks the registry listening on addr ("host:port") for the names
// it publishes.
func FetchNames(ctx context.Context, addr string) ([]string, error) {
	body, err := get(ctx, "http://"+addr+"/names")
	if err != nil {
		return nil, err
	}
	res := gjson.GetBytes(body, "names")
	if !res.IsArray() {
		return nil, fmt.Errorf("rmx(transport): malformed names response from %s", addr)
	}
	names := make([]string, 0, len(res.Array()))
	for _, n := range res.Array() {
		names = append(names, n.String())
	}
	return names, nil
}

// FetchConnector asks the registry listening on addr where its connector is.
func FetchConnector(ctx context.Context, addr string) (string, error) {
	body, err := get(ctx, "http://"+addr+"/connector")
	if err != nil {
		return "", err
	}
	res := gjson.GetBytes(body, "address")
	if res.String() == "" {
		return "", fmt.Errorf("rmx(transport): malformed connector response from %s", addr)
	}
	return res.String(), nil
}

func get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("rmx(transport): %w", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("rmx(transport): GET %s: %w", url, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, fmt.Errorf("rmx(transport): GET %s: %w", url, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("rmx(transport): GET %s: %s: %s", url, resp.Status, gjson.GetBytes(body, "error").String())
	}
	return body, nil
}
