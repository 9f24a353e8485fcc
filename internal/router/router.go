package router

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/noah-isme/campus-portal-api/internal/handler"
	"github.com/noah-isme/campus-portal-api/internal/middleware"
	"github.com/noah-isme/campus-portal-api/internal/models"
)

// Handlers bundles every HTTP handler mounted by Register.
type Handlers struct {
	Auth              *handler.AuthHandler
	Departments       *handler.DepartmentHandler
	Faculty           *handler.FacultyHandler
	Classrooms        *handler.ClassroomHandler
	Resources         *handler.ResourceHandler
	Subjects          *handler.SubjectHandler
	TimeSlots         *handler.TimeSlotHandler
	Timetables        *handler.TimetableHandler
	ClassroomBookings *handler.ClassroomBookingHandler
	BookingRequests   *handler.BookingRequestHandler
	ResourceRequests  *handler.ResourceRequestHandler
	Metrics           *handler.MetricsHandler
}

// Options carries the cross-cutting dependencies of the API group.
type Options struct {
	Prefix    string
	Validator middleware.TokenValidator
	Audit     middleware.AuditWriter
	Logger    *zap.Logger
}

type crudHandler interface {
	List(c *gin.Context)
	Get(c *gin.Context)
	Create(c *gin.Context)
	Update(c *gin.Context)
	Delete(c *gin.Context)
}

// Register mounts ops endpoints on the engine root and the API under opts.Prefix.
func Register(r *gin.Engine, h Handlers, opts Options) {
	r.GET("/health", h.Metrics.Health)
	r.GET("/ready", h.Metrics.Ready)
	r.GET("/metrics", h.Metrics.Prometheus)

	prefix := opts.Prefix
	if prefix == "" {
		prefix = "/api"
	}
	api := r.Group(prefix)

	auth := api.Group("/auth")
	auth.POST("/login", h.Auth.Login)
	auth.POST("/refresh", h.Auth.Refresh)

	secured := api.Group("")
	secured.Use(middleware.JWT(opts.Validator))
	secured.POST("/auth/logout", h.Auth.Logout)
	secured.GET("/auth/me", h.Auth.Me)
	secured.GET("/metrics/summary", middleware.RequireRoles(models.RoleAdmin), h.Metrics.Summary)

	adminOnly := middleware.RequireRoles(models.RoleAdmin)
	mountCRUD(secured.Group("/departments"), h.Departments, adminOnly, opts, "departments")
	mountCRUD(secured.Group("/faculty"), h.Faculty, adminOnly, opts, "faculty")
	mountCRUD(secured.Group("/classrooms"), h.Classrooms, adminOnly, opts, "classrooms")
	mountCRUD(secured.Group("/resources"), h.Resources, adminOnly, opts, "resources")
	mountCRUD(secured.Group("/subjects"), h.Subjects, middleware.RequireRoles(models.RoleAdmin, models.RoleHOD), opts, "subjects")
	mountCRUD(secured.Group("/time-slots"), h.TimeSlots, adminOnly, opts, "time_slots")

	scheduler := middleware.RequireRoles(models.RoleAdmin, models.RoleHOD)
	timetables := secured.Group("/timetables")
	timetables.GET("", h.Timetables.List)
	timetables.GET("/:id", h.Timetables.Get)
	timetables.GET("/:id/entries", h.Timetables.ListEntries)
	timetables.GET("/:id/export", h.Timetables.Export)
	timetables.POST("", scheduler, h.Timetables.Create)
	timetables.PUT("/:id", scheduler, h.Timetables.Update)
	timetables.DELETE("/:id", scheduler, middleware.Audit(opts.Audit, opts.Logger, models.AuditActionDelete, "timetables"), h.Timetables.Delete)
	timetables.POST("/:id/entries", scheduler, h.Timetables.AddEntry)
	timetables.PUT("/entries/:entryId", scheduler, h.Timetables.UpdateEntry)
	timetables.DELETE("/entries/:entryId", scheduler, h.Timetables.DeleteEntry)

	bookings := secured.Group("/classroom-bookings")
	bookings.GET("", h.ClassroomBookings.List)
	bookings.GET("/:id", h.ClassroomBookings.Get)
	bookings.POST("", scheduler, h.ClassroomBookings.Create)
	bookings.PUT("/:id/status", scheduler, h.ClassroomBookings.UpdateStatus)
	bookings.DELETE("/:id", adminOnly, h.ClassroomBookings.Delete)

	// Ownership and approver rules are enforced by the services, which see the actor's department.
	requests := secured.Group("/booking-requests")
	requests.GET("", h.BookingRequests.List)
	requests.POST("", h.BookingRequests.Create)
	requests.GET("/:id", h.BookingRequests.Get)
	requests.PUT("/:id", h.BookingRequests.Update)
	requests.DELETE("/:id", h.BookingRequests.Withdraw)
	requests.PUT("/:id/status", middleware.RequireRoles(models.RoleAdmin, models.RoleHOD, models.RolePrincipal), h.BookingRequests.UpdateStatus)
	requests.PUT("/:id/vc-approval", middleware.RequireRoles(models.RoleVC), h.BookingRequests.VCApproval)

	resourceRequests := secured.Group("/resource-requests")
	resourceRequests.GET("", h.ResourceRequests.List)
	resourceRequests.GET("/:id", h.ResourceRequests.Get)
	resourceRequests.POST("/create", middleware.RequireRoles(models.RoleHOD), h.ResourceRequests.Create)
	resourceRequests.PUT("/:id/update", middleware.RequireRoles(models.RoleHOD), h.ResourceRequests.Update)
	resourceRequests.POST("/:id/approve", middleware.RequireRoles(models.RoleAdmin, models.RoleHOD, models.RolePrincipal), h.ResourceRequests.Approve)
	resourceRequests.POST("/:id/reject", middleware.RequireRoles(models.RoleAdmin, models.RoleHOD, models.RolePrincipal), h.ResourceRequests.Reject)
	resourceRequests.POST("/:id/cancel", middleware.RequireRoles(models.RoleHOD), h.ResourceRequests.Cancel)
}

func mountCRUD(group *gin.RouterGroup, h crudHandler, writers gin.HandlerFunc, opts Options, resource string) {
	group.GET("", h.List)
	group.GET("/:id", h.Get)
	group.POST("", writers, middleware.Audit(opts.Audit, opts.Logger, models.AuditActionCreate, resource), h.Create)
	group.PUT("/:id", writers, middleware.Audit(opts.Audit, opts.Logger, models.AuditActionUpdate, resource), h.Update)
	group.DELETE("/:id", writers, middleware.Audit(opts.Audit, opts.Logger, models.AuditActionDelete, resource), h.Delete)
}
