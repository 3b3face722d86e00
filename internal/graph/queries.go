package graph

import (
	"github.com/bookclub/api/internal/auth"
	"github.com/bookclub/api/internal/models"
	"github.com/bookclub/api/internal/storage"
	"github.com/bookclub/api/pkg/utils"
	"github.com/graphql-go/graphql"
)

func nullable[T any](v *T) interface{} {
	if v == nil {
		return nil
	}
	return v
}

func idArg(name string) graphql.FieldConfigArgument {
	return graphql.FieldConfigArgument{
		name: &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Int)},
	}
}

func (r *Resolver) queryType(t types) *graphql.Object {
	return graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"me": &graphql.Field{
				Type: userType,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					user, err := r.Users.Me(p.Context)
					if err != nil {
						return nil, fail(p.Context, "me_failed", err)
					}
					return nullable(user), nil
				},
			},
			"allUsers": &graphql.Field{
				Type: listOf(userType),
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					users, err := r.Users.All(p.Context)
					if err != nil {
						return nil, fail(p.Context, "list_users_failed", err)
					}
					return users, nil
				},
			},
			"previousReadings": &graphql.Field{
				Type: graphql.NewNonNull(t.readingPage),
				Args: graphql.FieldConfigArgument{
					"limit":  &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Int)},
					"cursor": &graphql.ArgumentConfig{Type: graphql.String},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					cursor, err := argTime(p.Args, "cursor")
					if err != nil {
						return nil, err
					}
					result, err := r.Readings.Previous(p.Context, cursor, argInt(p.Args, "limit", utils.MaxPageSize))
					if err != nil {
						return nil, fail(p.Context, "previous_readings_failed", err)
					}
					return readingPage(result), nil
				},
			},
			"currentlyReading": &graphql.Field{
				Type: listOf(t.reading),
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					readings, err := r.Readings.Current(p.Context)
					if err != nil {
						return nil, fail(p.Context, "current_readings_failed", err)
					}
					return readings, nil
				},
			},
			"reading": &graphql.Field{
				Type: t.reading,
				Args: idArg("id"),
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					id, err := argUint(p.Args, "id")
					if err != nil {
						return nil, err
					}
					reading, err := r.Readings.Get(p.Context, id)
					if err != nil {
						return nil, fail(p.Context, "get_reading_failed", err)
					}
					return nullable(reading), nil
				},
			},
			"rating": &graphql.Field{
				Type:        listOf(ratingType),
				Description: "Ratings of the reading with the given id.",
				Args:        idArg("id"),
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					id, err := argUint(p.Args, "id")
					if err != nil {
						return nil, err
					}
					ratings, err := r.Ratings.ForReading(p.Context, id)
					if err != nil {
						return nil, fail(p.Context, "list_ratings_failed", err)
					}
					return ratings, nil
				},
			},
			"userRating": &graphql.Field{
				Type: ratingType,
				Args: idArg("readingId"),
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					userID, ok := auth.CurrentUserID(p.Context)
					if !ok {
						return nil, nil
					}
					readingID, err := argUint(p.Args, "readingId")
					if err != nil {
						return nil, err
					}
					rating, err := r.Ratings.UserRating(p.Context, userID, readingID)
					if err != nil {
						return nil, fail(p.Context, "user_rating_failed", err)
					}
					return nullable(rating), nil
				},
			},
			"allMeetings": &graphql.Field{
				Type: graphql.NewNonNull(t.meetingPage),
				Args: graphql.FieldConfigArgument{
					"cursor": &graphql.ArgumentConfig{Type: graphql.String},
					"limit":  &graphql.ArgumentConfig{Type: graphql.Int},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					cursor, err := argTime(p.Args, "cursor")
					if err != nil {
						return nil, err
					}
					result, err := r.Meetings.Page(p.Context, cursor, argInt(p.Args, "limit", utils.MaxPageSize))
					if err != nil {
						return nil, fail(p.Context, "list_meetings_failed", err)
					}
					return meetingPage(result), nil
				},
			},
			"meetingsByMonth": &graphql.Field{
				Type: graphql.NewNonNull(t.meetingPage),
				Args: graphql.FieldConfigArgument{
					"cursor": &graphql.ArgumentConfig{Type: graphql.String},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					cursor, err := argTime(p.Args, "cursor")
					if err != nil {
						return nil, err
					}
					result, err := r.Meetings.ForMonth(p.Context, cursor)
					if err != nil {
						return nil, fail(p.Context, "meetings_by_month_failed", err)
					}
					return meetingPage(result), nil
				},
			},
			"meeting": &graphql.Field{
				Type: t.meeting,
				Args: idArg("id"),
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					id, err := argUint(p.Args, "id")
					if err != nil {
						return nil, err
					}
					meeting, err := r.Meetings.Get(p.Context, id)
					if err != nil {
						return nil, fail(p.Context, "get_meeting_failed", err)
					}
					return nullable(meeting), nil
				},
			},
			"currentReadingMeetings": &graphql.Field{
				Type: listOf(t.meeting),
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					meetings, err := r.Meetings.CurrentReadingMeetings(p.Context)
					if err != nil {
						return nil, fail(p.Context, "current_reading_meetings_failed", err)
					}
					if meetings == nil {
						meetings = []models.Meeting{}
					}
					return meetings, nil
				},
			},
			"readingAssignments": &graphql.Field{
				Type: listOf(t.readingAssignment),
				Args: idArg("meetingId"),
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					id, err := argUint(p.Args, "meetingId")
					if err != nil {
						return nil, err
					}
					assignments, err := r.Meetings.Assignments(p.Context, id)
					if err != nil {
						return nil, fail(p.Context, "reading_assignments_failed", err)
					}
					return assignments, nil
				},
			},
			"meetingUsersAttendance": &graphql.Field{
				Type: listOf(userAttendanceType),
				Args: graphql.FieldConfigArgument{
					"meetingId": &graphql.ArgumentConfig{Type: graphql.Int},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					id, err := argOptionalUint(p.Args, "meetingId")
					if err != nil {
						return nil, err
					}
					if id == nil || *id == 0 {
						return []storage.UserAttendance{}, nil
					}
					rows, err := r.Attendance.ForMeeting(p.Context, *id)
					if err != nil {
						return nil, fail(p.Context, "meeting_attendance_failed", err)
					}
					return rows, nil
				},
			},
		},
	})
}
