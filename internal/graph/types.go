package graph

import (
	"github.com/bookclub/api/internal/models"
	"github.com/bookclub/api/internal/storage"
	"github.com/bookclub/api/internal/services"
	"github.com/bookclub/api/pkg/utils"
	"github.com/graphql-go/graphql"
)

// source unwraps p.Source whether the parent resolved to T or *T.
func source[T any](src interface{}) *T {
	switch v := src.(type) {
	case *T:
		return v
	case T:
		return &v
	default:
		return nil
	}
}

func field[T any](typ graphql.Output, get func(*T) interface{}) *graphql.Field {
	return &graphql.Field{
		Type: typ,
		Resolve: func(p graphql.ResolveParams) (interface{}, error) {
			s := source[T](p.Source)
			if s == nil {
				return nil, nil
			}
			return get(s), nil
		},
	}
}

func nonNull(t graphql.Type) graphql.Type {
	return graphql.NewNonNull(t)
}

func listOf(t graphql.Type) graphql.Type {
	return graphql.NewNonNull(graphql.NewList(graphql.NewNonNull(t)))
}

var readingTypeEnum = graphql.NewEnum(graphql.EnumConfig{
	Name: "ReadingType",
	Values: graphql.EnumValueConfigMap{
		"play":       &graphql.EnumValueConfig{Value: models.ReadingTypePlay},
		"novel":      &graphql.EnumValueConfig{Value: models.ReadingTypeNovel},
		"nonFiction": &graphql.EnumValueConfig{Value: models.ReadingTypeNonFiction},
	},
})

var assignmentTypeEnum = graphql.NewEnum(graphql.EnumConfig{
	Name: "AssignmentType",
	Values: graphql.EnumValueConfigMap{
		"pages":    &graphql.EnumValueConfig{Value: models.AssignmentTypePages},
		"chapters": &graphql.EnumValueConfig{Value: models.AssignmentTypeChapters},
		"acts":     &graphql.EnumValueConfig{Value: models.AssignmentTypeActs},
	},
})

var attendanceStateEnum = graphql.NewEnum(graphql.EnumConfig{
	Name: "AttendanceState",
	Values: graphql.EnumValueConfigMap{
		"absent":  &graphql.EnumValueConfig{Value: models.AttendanceAbsent},
		"present": &graphql.EnumValueConfig{Value: models.AttendancePresent},
		"excused": &graphql.EnumValueConfig{Value: models.AttendanceExcused},
	},
})

var fieldErrorType = graphql.NewObject(graphql.ObjectConfig{
	Name: "FieldError",
	Fields: graphql.Fields{
		"field":   field(nonNull(graphql.String), func(e *services.FieldError) interface{} { return e.Field }),
		"message": field(nonNull(graphql.String), func(e *services.FieldError) interface{} { return e.Message }),
	},
})

var userType = graphql.NewObject(graphql.ObjectConfig{
	Name: "User",
	Fields: graphql.Fields{
		"id":        field(nonNull(graphql.Int), func(u *models.User) interface{} { return int(u.ID) }),
		"email":     field(nonNull(graphql.String), func(u *models.User) interface{} { return u.Email }),
		"name":      field(nonNull(graphql.String), func(u *models.User) interface{} { return u.Name }),
		"createdAt": field(nonNull(graphql.String), func(u *models.User) interface{} { return utils.FormatTimestamp(u.CreatedAt) }),
		"updatedAt": field(nonNull(graphql.String), func(u *models.User) interface{} { return utils.FormatTimestamp(u.UpdatedAt) }),
	},
})

var userResponseType = graphql.NewObject(graphql.ObjectConfig{
	Name: "UserResponse",
	Fields: graphql.Fields{
		"errors": field(graphql.NewList(graphql.NewNonNull(fieldErrorType)), func(r *services.UserResult) interface{} {
			if len(r.Errors) == 0 {
				return nil
			}
			return r.Errors
		}),
		"user": field(userType, func(r *services.UserResult) interface{} {
			if r.User == nil {
				return nil
			}
			return r.User
		}),
	},
})

var ratingType = graphql.NewObject(graphql.ObjectConfig{
	Name: "Rating",
	Fields: graphql.Fields{
		"id":        field(nonNull(graphql.Int), func(r *models.Rating) interface{} { return int(r.ID) }),
		"userId":    field(nonNull(graphql.Int), func(r *models.Rating) interface{} { return int(r.UserID) }),
		"readingId": field(nonNull(graphql.Int), func(r *models.Rating) interface{} { return int(r.ReadingID) }),
		"rating":    field(nonNull(graphql.Int), func(r *models.Rating) interface{} { return r.Rating }),
		"createdAt": field(nonNull(graphql.String), func(r *models.Rating) interface{} { return utils.FormatTimestamp(r.CreatedAt) }),
		"updatedAt": field(nonNull(graphql.String), func(r *models.Rating) interface{} { return utils.FormatTimestamp(r.UpdatedAt) }),
	},
})

var ratingResponseType = graphql.NewObject(graphql.ObjectConfig{
	Name: "RatingResponse",
	Fields: graphql.Fields{
		"rating": field(ratingType, func(r *services.RatingResult) interface{} {
			if r.Rating == nil {
				return nil
			}
			return r.Rating
		}),
		"avgRating": field(graphql.Float, func(r *services.RatingResult) interface{} {
			if r.AvgRating == nil {
				return nil
			}
			return *r.AvgRating
		}),
	},
})

var attendanceType = graphql.NewObject(graphql.ObjectConfig{
	Name: "Attendance",
	Fields: graphql.Fields{
		"meetingId":          field(nonNull(graphql.Int), func(a *models.Attendance) interface{} { return int(a.MeetingID) }),
		"userId":             field(nonNull(graphql.Int), func(a *models.Attendance) interface{} { return int(a.UserID) }),
		"attendanceState":    field(nonNull(attendanceStateEnum), func(a *models.Attendance) interface{} { return a.AttendanceState }),
		"isDiscussionLeader": field(nonNull(graphql.Boolean), func(a *models.Attendance) interface{} { return a.IsDiscussionLeader }),
	},
})

var userAttendanceType = graphql.NewObject(graphql.ObjectConfig{
	Name: "UserAttendance",
	Fields: graphql.Fields{
		"user":               field(nonNull(userType), func(a *storage.UserAttendance) interface{} { return &a.User }),
		"attendanceState":    field(nonNull(attendanceStateEnum), func(a *storage.UserAttendance) interface{} { return a.AttendanceState }),
		"isDiscussionLeader": field(nonNull(graphql.Boolean), func(a *storage.UserAttendance) interface{} { return a.IsDiscussionLeader }),
	},
})

func optionalString(s *string) interface{} {
	if s == nil {
		return nil
	}
	return *s
}
