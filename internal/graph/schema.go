// Package graph exposes the book club services as a GraphQL schema.
package graph

import (
	"time"

	"github.com/bookclub/api/internal/models"
	"github.com/bookclub/api/internal/services"
	"github.com/bookclub/api/internal/storage"
	"github.com/bookclub/api/pkg/utils"
	"github.com/graphql-go/graphql"
)

// Resolver carries the services every field resolves through.
type Resolver struct {
	Users      *services.UserService
	Readings   *services.ReadingService
	Ratings    *services.RatingService
	Meetings   *services.MeetingService
	Attendance *services.AttendanceService
	Audit      *services.AuditService
}

// page is the wire shape of utils.CursorPage.
type page struct {
	items          interface{}
	previousCursor *time.Time
	nextCursor     *time.Time
}

func meetingPage(p utils.CursorPage[models.Meeting]) *page {
	items := p.Items
	if items == nil {
		items = []models.Meeting{}
	}
	return &page{items: items, previousCursor: p.PreviousCursor, nextCursor: p.NextCursor}
}

func readingPage(p utils.CursorPage[models.Reading]) *page {
	items := p.Items
	if items == nil {
		items = []models.Reading{}
	}
	return &page{items: items, previousCursor: p.PreviousCursor, nextCursor: p.NextCursor}
}

func pageType(name string, item graphql.Type) *graphql.Object {
	return graphql.NewObject(graphql.ObjectConfig{
		Name: name,
		Fields: graphql.Fields{
			"items":          field(listOf(item), func(p *page) interface{} { return p.items }),
			"previousCursor": field(graphql.String, func(p *page) interface{} { return optionalString(utils.FormatTimestampPtr(p.previousCursor)) }),
			"nextCursor":     field(graphql.String, func(p *page) interface{} { return optionalString(utils.FormatTimestampPtr(p.nextCursor)) }),
		},
	})
}

func (r *Resolver) readingType() *graphql.Object {
	return graphql.NewObject(graphql.ObjectConfig{
		Name: "Reading",
		Fields: graphql.Fields{
			"id":     field(nonNull(graphql.Int), func(x *models.Reading) interface{} { return int(x.ID) }),
			"title":  field(nonNull(graphql.String), func(x *models.Reading) interface{} { return x.Title }),
			"author": field(nonNull(graphql.String), func(x *models.Reading) interface{} { return x.Author }),
			"type": field(readingTypeEnum, func(x *models.Reading) interface{} {
				if x.Type == nil {
					return nil
				}
				return *x.Type
			}),
			"avgRating": field(graphql.Float, func(x *models.Reading) interface{} {
				if x.AvgRating == nil {
					return nil
				}
				return *x.AvgRating
			}),
			"currentlyReading": field(nonNull(graphql.Boolean), func(x *models.Reading) interface{} { return x.CurrentlyReading }),
			"createdBy": field(graphql.Int, func(x *models.Reading) interface{} {
				if x.CreatedBy == nil {
					return nil
				}
				return int(*x.CreatedBy)
			}),
			"createdAt": field(nonNull(graphql.String), func(x *models.Reading) interface{} { return utils.FormatTimestamp(x.CreatedAt) }),
			"updatedAt": field(nonNull(graphql.String), func(x *models.Reading) interface{} { return utils.FormatTimestamp(x.UpdatedAt) }),
			"ratings": &graphql.Field{
				Type: listOf(ratingType),
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					reading := source[models.Reading](p.Source)
					if reading == nil {
						return []models.Rating{}, nil
					}
					ratings, err := r.Ratings.ForReading(p.Context, reading.ID)
					if err != nil {
						return nil, fail(p.Context, "reading_ratings_failed", err)
					}
					return ratings, nil
				},
			},
		},
	})
}

func (r *Resolver) readingAssignmentType(reading *graphql.Object) *graphql.Object {
	return graphql.NewObject(graphql.ObjectConfig{
		Name: "ReadingAssignment",
		Fields: graphql.Fields{
			"meetingToReadingId": field(nonNull(graphql.Int), func(a *storage.ReadingAssignment) interface{} { return int(a.MeetingToReadingID) }),
			"meetingId":          field(nonNull(graphql.Int), func(a *storage.ReadingAssignment) interface{} { return int(a.MeetingID) }),
			"readingId":          field(nonNull(graphql.Int), func(a *storage.ReadingAssignment) interface{} { return int(a.Reading.ID) }),
			"reading":            field(nonNull(reading), func(a *storage.ReadingAssignment) interface{} { return &a.Reading }),
			"assignmentType": field(assignmentTypeEnum, func(a *storage.ReadingAssignment) interface{} {
				if a.AssignmentType == nil {
					return nil
				}
				return *a.AssignmentType
			}),
			"assignmentStart": field(graphql.String, func(a *storage.ReadingAssignment) interface{} { return optionalString(a.AssignmentStart) }),
			"assignmentEnd":   field(graphql.String, func(a *storage.ReadingAssignment) interface{} { return optionalString(a.AssignmentEnd) }),
		},
	})
}

func (r *Resolver) meetingType(assignment *graphql.Object) *graphql.Object {
	return graphql.NewObject(graphql.ObjectConfig{
		Name: "Meeting",
		Fields: graphql.Fields{
			"id":          field(nonNull(graphql.Int), func(m *models.Meeting) interface{} { return int(m.ID) }),
			"meetingDate": field(nonNull(graphql.String), func(m *models.Meeting) interface{} { return utils.FormatTimestamp(m.MeetingDate) }),
			"meetingLink": field(graphql.String, func(m *models.Meeting) interface{} { return optionalString(m.MeetingLink) }),
			"createdAt":   field(nonNull(graphql.String), func(m *models.Meeting) interface{} { return utils.FormatTimestamp(m.CreatedAt) }),
			"updatedAt":   field(nonNull(graphql.String), func(m *models.Meeting) interface{} { return utils.FormatTimestamp(m.UpdatedAt) }),
			"readings": &graphql.Field{
				Type: listOf(assignment),
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					meeting := source[models.Meeting](p.Source)
					if meeting == nil {
						return []storage.ReadingAssignment{}, nil
					}
					assignments, err := r.Meetings.Assignments(p.Context, meeting.ID)
					if err != nil {
						return nil, fail(p.Context, "meeting_readings_failed", err)
					}
					return assignments, nil
				},
			},
			"attendance": &graphql.Field{
				Type: listOf(userAttendanceType),
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					meeting := source[models.Meeting](p.Source)
					if meeting == nil {
						return []storage.UserAttendance{}, nil
					}
					rows, err := r.Attendance.ForMeeting(p.Context, meeting.ID)
					if err != nil {
						return nil, fail(p.Context, "meeting_attendance_failed", err)
					}
					return rows, nil
				},
			},
		},
	})
}

// types groups the object types that depend on the resolver.
type types struct {
	reading           *graphql.Object
	readingAssignment *graphql.Object
	meeting           *graphql.Object
	meetingPage       *graphql.Object
	readingPage       *graphql.Object
}

func NewSchema(r *Resolver) (graphql.Schema, error) {
	t := types{}
	t.reading = r.readingType()
	t.readingAssignment = r.readingAssignmentType(t.reading)
	t.meeting = r.meetingType(t.readingAssignment)
	t.meetingPage = pageType("PaginatedMeetings", t.meeting)
	t.readingPage = pageType("PaginatedReadings", t.reading)

	return graphql.NewSchema(graphql.SchemaConfig{
		Query:    r.queryType(t),
		Mutation: r.mutationType(t),
	})
}
