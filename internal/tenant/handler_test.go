package tenant_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/workforce-management/internal/core/events"
	"github.com/frahmantamala/workforce-management/internal/tenant"
	"github.com/frahmantamala/workforce-management/pkg/logger"
)

var _ = Describe("Tenant Handler Integration", func() {
	var (
		handler  *tenant.Handler
		mockRepo *mockTenantRepository
	)

	adminToken := makeTokenLazy(func() map[string]interface{} {
		return map[string]interface{}{
			"sub":  "admin-1",
			"role": "super_admin",
			"exp":  time.Now().Add(time.Hour).Unix(),
		}
	})

	employeeToken := makeTokenLazy(func() map[string]interface{} {
		return map[string]interface{}{
			"sub":        "user-1",
			"company_id": "company-acme",
			"role":       "employee",
			"exp":        time.Now().Add(time.Hour).Unix(),
		}
	})

	BeforeEach(func() {
		logger.Init("test", "error")
		mockRepo = newMockTenantRepository()
		mockRepo.companies["company-acme"] = true
		service := tenant.NewService(mockRepo, events.NewEventBus(logger.L()), logger.L())
		handler = tenant.NewHandler(service)
	})

	do := func(token string, payload interface{}, h http.HandlerFunc) *httptest.ResponseRecorder {
		var body []byte
		if payload != nil {
			var err error
			body, err = json.Marshal(payload)
			Expect(err).NotTo(HaveOccurred())
		}
		req := httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(body))
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		w := httptest.NewRecorder()
		h(w, req)
		return w
	}

	Describe("GET /tenant/context", func() {
		It("should resolve the caller's tenant context", func() {
			w := do(employeeToken(), nil, handler.GetContext)
			Expect(w.Code).To(Equal(http.StatusOK))

			var resp tenant.ContextResponse
			Expect(json.NewDecoder(w.Body).Decode(&resp)).To(Succeed())
			Expect(resp.CompanyID).NotTo(BeNil())
			Expect(*resp.CompanyID).To(Equal("company-acme"))
			Expect(resp.Source).To(Equal(string(tenant.SourceClaim)))
		})

		It("should return a null company for an unusable token", func() {
			w := do("garbage", nil, handler.GetContext)
			Expect(w.Code).To(Equal(http.StatusOK))

			var resp tenant.ContextResponse
			Expect(json.NewDecoder(w.Body).Decode(&resp)).To(Succeed())
			Expect(resp.CompanyID).To(BeNil())
			Expect(resp.Source).To(Equal(string(tenant.SourceNone)))
			Expect(resp.IsExpired).To(BeTrue())
		})
	})

	Describe("GET /tenant/context/audit", func() {
		It("should return all four precedence candidates", func() {
			w := do(adminToken(), nil, handler.GetContextAudit)
			Expect(w.Code).To(Equal(http.StatusOK))

			var audit tenant.ResolutionAudit
			Expect(json.NewDecoder(w.Body).Decode(&audit)).To(Succeed())
			Expect(audit.Candidates).To(HaveLen(4))
			Expect(audit.Resolved.IsSuperAdmin).To(BeTrue())
		})
	})

	Describe("POST /tenant/impersonation", func() {
		It("should start impersonation for a super admin", func() {
			w := do(adminToken(), tenant.ImpersonateDTO{CompanyID: "company-acme"}, handler.StartImpersonation)
			Expect(w.Code).To(Equal(http.StatusCreated))
		})

		It("should return 403 for a non-admin", func() {
			w := do(employeeToken(), tenant.ImpersonateDTO{CompanyID: "company-acme"}, handler.StartImpersonation)
			Expect(w.Code).To(Equal(http.StatusForbidden))
		})

		It("should return 400 for a missing company_id", func() {
			w := do(adminToken(), tenant.ImpersonateDTO{}, handler.StartImpersonation)
			Expect(w.Code).To(Equal(http.StatusBadRequest))
		})

		It("should return 404 for an unknown company", func() {
			w := do(adminToken(), tenant.ImpersonateDTO{CompanyID: "ghost"}, handler.StartImpersonation)
			Expect(w.Code).To(Equal(http.StatusNotFound))
		})

		It("should return 409 when a session is already active", func() {
			first := do(adminToken(), tenant.ImpersonateDTO{CompanyID: "company-acme"}, handler.StartImpersonation)
			Expect(first.Code).To(Equal(http.StatusCreated))

			second := do(adminToken(), tenant.ImpersonateDTO{CompanyID: "company-acme"}, handler.StartImpersonation)
			Expect(second.Code).To(Equal(http.StatusConflict))
		})
	})

	Describe("DELETE /tenant/impersonation", func() {
		It("should stop the active session", func() {
			mockRepo.impersonationTarget = "company-acme"
			w := do(adminToken(), nil, handler.StopImpersonation)
			Expect(w.Code).To(Equal(http.StatusNoContent))
		})

		It("should return 404 without an active session", func() {
			w := do(adminToken(), nil, handler.StopImpersonation)
			Expect(w.Code).To(Equal(http.StatusNotFound))
		})
	})

	Describe("tenant session endpoints", func() {
		It("should start and stop a tenant session", func() {
			started := do(adminToken(), tenant.TenantSessionDTO{CompanyID: "company-acme"}, handler.StartTenantSession)
			Expect(started.Code).To(Equal(http.StatusCreated))

			stopped := do(adminToken(), nil, handler.StopTenantSession)
			Expect(stopped.Code).To(Equal(http.StatusNoContent))
		})
	})
})

// makeTokenLazy defers token construction until inside a spec so the expiry is
// relative to the test run, not suite construction.
func makeTokenLazy(payload func() map[string]interface{}) func() string {
	return func() string {
		return makeToken(payload())
	}
}
