package server

import (
	"github.com/danielgtaylor/huma/v2"

	v1 "github.com/platewise/platewise/internal/api/v1"
	"github.com/platewise/platewise/internal/auth"
	"github.com/platewise/platewise/internal/provision"
	"github.com/platewise/platewise/internal/setuplink"
	"github.com/platewise/platewise/internal/store/postgres"
)

func registerAuthRoutes(api huma.API, authSvc *auth.Service) {
	v1.RegisterAuthRoutes(api, authSvc)
}

func registerPublicRoutes(api huma.API, links *setuplink.Service) {
	v1.RegisterPublicSetupLinkRoutes(api, links)
}

func registerAdminRoutes(api huma.API, store *postgres.Store, provisioner *provision.Service, links *setuplink.Service) {
	v1.RegisterProvisionRoutes(api, provisioner)
	v1.RegisterTenantRoutes(api, store)
	v1.RegisterSetupLinkRoutes(api, links)
}
