// internal/platform/di/shared/secret_provider_sm.go
package shared

import (
	"context"
	"errors"
	"strings"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	secretmanagerpb "cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
)

var errSecretProviderNotConfigured = errors.New("di.shared: SecretProviderSM not configured")

// SecretProviderSM reads secret payloads from Secret Manager.
type SecretProviderSM struct {
	sm        *secretmanager.Client
	projectID string
	version   string
}

func NewSecretProviderSM(sm *secretmanager.Client, projectID string) *SecretProviderSM {
	return &SecretProviderSM{sm: sm, projectID: projectID, version: "latest"}
}

// Get returns the trimmed payload of secretID.
func (p *SecretProviderSM) Get(ctx context.Context, secretID string) (string, error) {
	if p == nil || p.sm == nil {
		return "", errSecretProviderNotConfigured
	}
	name, err := secretVersionName(p.projectID, secretID, p.version)
	if err != nil {
		return "", err
	}

	resp, err := p.sm.AccessSecretVersion(ctx, &secretmanagerpb.AccessSecretVersionRequest{Name: name})
	if err != nil {
		return "", errors.New("SecretProviderSM: AccessSecretVersion failed (" + name + "): " + err.Error())
	}
	if resp == nil || resp.Payload == nil {
		return "", errors.New("SecretProviderSM: empty payload (" + name + ")")
	}
	return strings.TrimSpace(string(resp.Payload.Data)), nil
}

// secretVersionName accepts a bare secret id or a full resource name.
func secretVersionName(projectID, secretID, version string) (string, error) {
	sid := strings.TrimSpace(secretID)
	if sid == "" {
		return "", errors.New("SecretProviderSM: secretID is empty")
	}
	if strings.HasPrefix(sid, "projects/") {
		if !strings.Contains(sid, "/versions/") {
			sid += "/versions/latest"
		}
		return sid, nil
	}
	prj := strings.TrimSpace(projectID)
	if prj == "" {
		return "", errors.New("SecretProviderSM: projectID is empty")
	}
	ver := strings.TrimSpace(version)
	if ver == "" {
		ver = "latest"
	}
	return "projects/" + prj + "/secrets/" + sid + "/versions/" + ver, nil
}
