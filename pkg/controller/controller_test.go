// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.

package controller

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	corev1 "k8s.io/api/core/v1"
	netv1 "k8s.io/api/networking/v1"
	apiextensionsv1 "k8s.io/apiextensions-apiserver/pkg/apis/apiextensions/v1"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/apimachinery/pkg/runtime/schema"
	"sigs.k8s.io/controller-runtime/pkg/log/zap"

	ephemeronv1alpha1 "github.com/qualified-io/ephemeron-operator/api/v1alpha1"
)

func TestLogger(t *testing.T) {
	t.Run("logs are json structured", func(t *testing.T) {
		logOut := new(bytes.Buffer)
		logger := getLogger(zap.WriteTo(logOut))

		logger.Info("test info log", "key", "value", "key2", "value2")
		logger.Error(errors.New("test error log"), "msg", "key3", "values3")

		out := logOut.Bytes()
		checked := 0
		for _, line := range bytes.SplitAfter(out, []byte("}")) {
			if bytes.TrimSpace(line) == nil {
				continue
			}

			assert.True(t, json.Valid(line), "line is not valid json", string(line))
			assert.True(t, strings.Contains(string(line), "\"caller\":\"controller/controller_test.go"))
			checked++
		}

		assert.True(t, checked > 0, "no logs validated")
	})
}

func TestRegisterSchemes(t *testing.T) {
	s := runtime.NewScheme()
	registerSchemes(s)

	for _, gvk := range []schema.GroupVersionKind{
		corev1.SchemeGroupVersion.WithKind("Pod"),
		netv1.SchemeGroupVersion.WithKind("Ingress"),
		ephemeronv1alpha1.GroupVersion.WithKind("Ephemeron"),
		apiextensionsv1.SchemeGroupVersion.WithKind("CustomResourceDefinition"),
	} {
		require.True(t, s.Recognizes(gvk), "scheme should recognize %s", gvk)
	}
}

func TestParseLevel(t *testing.T) {
	for _, level := range []string{"trace", "debug", "info", "", "warn", "error"} {
		_, err := parseLevel(level)
		require.NoError(t, err, level)
	}

	_, err := parseLevel("verbose")
	require.Error(t, err)
}

func TestConfigureLogging(t *testing.T) {
	require.NoError(t, ConfigureLogging("debug"))
	require.Error(t, ConfigureLogging("verbose"))
}

func TestPingChecker(t *testing.T) {
	require.True(t, pingChecker{}.IsHealthy())
}

func TestProbeCheck(t *testing.T) {
	checkers := newHealthCheckers()
	checkers.addCheck(pingChecker{})
	require.True(t, checkers.isHealthy())

	check := func(*http.Request) error {
		if !checkers.isHealthy() {
			return errors.New("unhealthy")
		}
		return nil
	}
	require.NoError(t, check(nil))
}
