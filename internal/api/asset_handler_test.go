package api

import (
	"bytes"
	"mime/multipart"
	"net/http/httptest"
	"net/textproto"
	"strconv"
	"testing"
)

func newImageUpload(t *testing.T, filename, contentType string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	header := textproto.MIMEHeader{}
	header.Set("Content-Disposition", `form-data; name="file"; filename="`+filename+`"`)
	header.Set("Content-Type", contentType)
	part, err := writer.CreatePart(header)
	if err != nil {
		t.Fatalf("create part: %v", err)
	}
	if _, err := part.Write(content); err != nil {
		t.Fatalf("write part: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	return body, writer.FormDataContentType()
}

func TestUploadAssetRejectsUnsupportedType(t *testing.T) {
	env := newTestEnv(t)
	owner := env.seedResume(t, "demo")

	body, contentType := newImageUpload(t, "evil.svg", "image/svg+xml", []byte("<svg/>"))
	req := httptest.NewRequest("POST", "/v1/resumes/demo/assets", body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set(testUserHeader, strconv.FormatUint(uint64(owner), 10))

	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	requireStatus(t, w, 400)
}

func TestUploadAssetRequiresFile(t *testing.T) {
	env := newTestEnv(t)
	owner := env.seedResume(t, "demo")

	w := env.do(t, "POST", "/v1/resumes/demo/assets", owner, nil, "")
	requireStatus(t, w, 400)
}

func TestUploadAssetNonOwnerForbidden(t *testing.T) {
	env := newTestEnv(t)
	env.seedResume(t, "demo")
	other := env.seedUser(t, "bob")

	body, contentType := newImageUpload(t, "a.png", "image/png", []byte("\x89PNG\r\n\x1a\n"))
	req := httptest.NewRequest("POST", "/v1/resumes/demo/assets", body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set(testUserHeader, strconv.FormatUint(uint64(other), 10))

	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	requireStatus(t, w, 403)
}

func TestGetAssetURLRejectsForeignKeys(t *testing.T) {
	env := newTestEnv(t)
	owner := env.seedResume(t, "demo")
	res := env.loadResume(t, "demo")

	foreign := "resume-assets/9999/other.png"
	w := env.do(t, "GET", "/v1/resumes/demo/assets/view?key="+foreign, owner, nil, "")
	requireStatus(t, w, 403)

	traversal := assetPrefix(res.ID) + "../secrets.png"
	w = env.do(t, "GET", "/v1/resumes/demo/assets/view?key="+traversal, owner, nil, "")
	requireStatus(t, w, 403)
}

func TestDeleteAssetRejectsForeignKeys(t *testing.T) {
	env := newTestEnv(t)
	owner := env.seedResume(t, "demo")
	res := env.loadResume(t, "demo")

	foreign := "resume-assets/9999/other.png"
	w := env.do(t, "DELETE", "/v1/resumes/demo/assets?key="+foreign, owner, nil, "")
	requireStatus(t, w, 403)

	traversal := assetPrefix(res.ID) + "../8/photo.png"
	w = env.do(t, "DELETE", "/v1/resumes/demo/assets?key="+traversal, owner, nil, "")
	requireStatus(t, w, 403)
}

func TestDeleteAssetNonOwnerForbidden(t *testing.T) {
	env := newTestEnv(t)
	env.seedResume(t, "demo")
	other := env.seedUser(t, "bob")

	w := env.do(t, "DELETE", "/v1/resumes/demo/assets?key=resume-assets/1/a.png", other, nil, "")
	requireStatus(t, w, 403)
}

func TestIsValidAssetObjectKey(t *testing.T) {
	prefix := assetPrefix(7)
	cases := []struct {
		key  string
		want bool
	}{
		{prefix + "photo.png", true},
		{prefix + "photo.jpeg", true},
		{prefix + "photo.webp", true},
		{"", false},
		{"resume-assets/8/photo.png", false},
		{prefix + "../8/photo.png", false},
		{prefix + "a//b.png", false},
		{prefix + "note.txt", false},
		{prefix + "back\\slash.png", false},
	}
	for _, tc := range cases {
		if got := isValidAssetObjectKey(7, tc.key); got != tc.want {
			t.Errorf("isValidAssetObjectKey(7, %q) = %v, want %v", tc.key, got, tc.want)
		}
	}
}
