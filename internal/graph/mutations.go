package graph

import (
	"context"
	"errors"

	"github.com/bookclub/api/internal/auth"
	"github.com/bookclub/api/internal/models"
	"github.com/bookclub/api/internal/services"
	"github.com/bookclub/api/pkg/logger"
	"github.com/graphql-go/graphql"
)

var registerInputType = graphql.NewInputObject(graphql.InputObjectConfig{
	Name: "RegisterInput",
	Fields: graphql.InputObjectConfigFieldMap{
		"email":    &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.String)},
		"password": &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.String)},
		"name":     &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.String)},
	},
})

var loginInputType = graphql.NewInputObject(graphql.InputObjectConfig{
	Name: "LoginInput",
	Fields: graphql.InputObjectConfigFieldMap{
		"email":    &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.String)},
		"password": &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.String)},
	},
})

var readingInputType = graphql.NewInputObject(graphql.InputObjectConfig{
	Name: "ReadingInput",
	Fields: graphql.InputObjectConfigFieldMap{
		"title":            &graphql.InputObjectFieldConfig{Type: graphql.String},
		"author":           &graphql.InputObjectFieldConfig{Type: graphql.String},
		"type":             &graphql.InputObjectFieldConfig{Type: readingTypeEnum},
		"currentlyReading": &graphql.InputObjectFieldConfig{Type: graphql.Boolean},
	},
})

var ratingInputType = graphql.NewInputObject(graphql.InputObjectConfig{
	Name: "RatingInput",
	Fields: graphql.InputObjectConfigFieldMap{
		"readingId": &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.Int)},
		"rating":    &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.Int)},
	},
})

var assignmentInputType = graphql.NewInputObject(graphql.InputObjectConfig{
	Name: "AssignmentInput",
	Fields: graphql.InputObjectConfigFieldMap{
		"readingId":       &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.Int)},
		"assignmentType":  &graphql.InputObjectFieldConfig{Type: assignmentTypeEnum},
		"assignmentStart": &graphql.InputObjectFieldConfig{Type: graphql.String},
		"assignmentEnd":   &graphql.InputObjectFieldConfig{Type: graphql.String},
	},
})

var meetingInputType = graphql.NewInputObject(graphql.InputObjectConfig{
	Name: "MeetingInput",
	Fields: graphql.InputObjectConfigFieldMap{
		"meetingDate": &graphql.InputObjectFieldConfig{
			Type:        graphql.String,
			Description: "Epoch milliseconds or RFC 3339.",
		},
		"meetingLink": &graphql.InputObjectFieldConfig{Type: graphql.String},
		"readingIds":  &graphql.InputObjectFieldConfig{Type: graphql.NewList(graphql.NewNonNull(graphql.Int))},
		"readings":    &graphql.InputObjectFieldConfig{Type: graphql.NewList(graphql.NewNonNull(assignmentInputType))},
	},
})

func readingInput(data map[string]interface{}) services.ReadingInput {
	in := services.ReadingInput{
		Title:            argString(data, "title"),
		Author:           argString(data, "author"),
		CurrentlyReading: argBool(data, "currentlyReading"),
	}
	if v, ok := data["type"].(models.ReadingType); ok {
		in.Type = &v
	}
	return in
}

func meetingInput(data map[string]interface{}) (services.MeetingInput, error) {
	date, err := argTime(data, "meetingDate")
	if err != nil {
		return services.MeetingInput{}, err
	}
	in := services.MeetingInput{MeetingDate: date, MeetingLink: argString(data, "meetingLink")}

	ids, err := argUintList(data, "readingIds")
	if err != nil {
		return services.MeetingInput{}, err
	}
	for _, id := range ids {
		in.Assignments = append(in.Assignments, services.AssignmentInput{ReadingID: id})
	}

	raw, _ := data["readings"].([]interface{})
	for _, item := range raw {
		fields, _ := item.(map[string]interface{})
		id, err := argUint(fields, "readingId")
		if err != nil {
			return services.MeetingInput{}, err
		}
		a := services.AssignmentInput{
			ReadingID:       id,
			AssignmentStart: argString(fields, "assignmentStart"),
			AssignmentEnd:   argString(fields, "assignmentEnd"),
		}
		if v, ok := fields["assignmentType"].(models.AssignmentType); ok {
			a.AssignmentType = &v
		}
		in.Assignments = append(in.Assignments, a)
	}
	return in, nil
}

var errNoSession = errors.New("request has no session")

func session(ctx context.Context) (auth.Session, error) {
	s, ok := auth.SessionFrom(ctx)
	if !ok {
		return nil, errNoSession
	}
	return s, nil
}

func (r *Resolver) audit(ctx context.Context, action, resourceType string, resourceID *uint, details map[string]interface{}) {
	info := requestInfo(ctx)
	r.Audit.LogAsync(services.AuditEntry{
		UserID:       userIDForAudit(ctx),
		Action:       action,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		Details:      details,
		IPAddress:    info.IP,
		RequestID:    info.RequestID,
	})
}

func (r *Resolver) mutationType(t types) *graphql.Object {
	return graphql.NewObject(graphql.ObjectConfig{
		Name: "Mutation",
		Fields: graphql.Fields{
			"register": &graphql.Field{
				Type: userResponseType,
				Args: graphql.FieldConfigArgument{
					"options": &graphql.ArgumentConfig{Type: graphql.NewNonNull(registerInputType)},
				},
				Resolve: r.register,
			},
			"login": &graphql.Field{
				Type: userResponseType,
				Args: graphql.FieldConfigArgument{
					"options": &graphql.ArgumentConfig{Type: graphql.NewNonNull(loginInputType)},
				},
				Resolve: r.login,
			},
			"logout": &graphql.Field{
				Type:    graphql.NewNonNull(graphql.Boolean),
				Resolve: r.logout,
			},
			"changePassword": &graphql.Field{
				Type: graphql.NewNonNull(userResponseType),
				Args: graphql.FieldConfigArgument{
					"token":       &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"newPassword": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: r.changePassword,
			},
			"forgotPassword": &graphql.Field{
				Type: graphql.NewNonNull(graphql.Boolean),
				Args: graphql.FieldConfigArgument{
					"email": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					email, _ := p.Args["email"].(string)
					return r.Users.ForgotPassword(p.Context, email), nil
				},
			},
			"createReading": &graphql.Field{
				Type: graphql.NewNonNull(t.reading),
				Args: graphql.FieldConfigArgument{
					"data": &graphql.ArgumentConfig{Type: graphql.NewNonNull(readingInputType)},
				},
				Resolve: requireAuth(r.createReading),
			},
			"updateReading": &graphql.Field{
				Type: t.reading,
				Args: graphql.FieldConfigArgument{
					"id":   &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Int)},
					"data": &graphql.ArgumentConfig{Type: graphql.NewNonNull(readingInputType)},
				},
				Resolve: requireAuth(r.updateReading),
			},
			"deleteReading": &graphql.Field{
				Type: graphql.NewNonNull(graphql.Boolean),
				Args: graphql.FieldConfigArgument{
					"ids": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.NewList(graphql.NewNonNull(graphql.Int)))},
				},
				Resolve: requireAuth(r.deleteReading),
			},
			"addRating": &graphql.Field{
				Type: graphql.NewNonNull(ratingResponseType),
				Args: graphql.FieldConfigArgument{
					"input": &graphql.ArgumentConfig{Type: graphql.NewNonNull(ratingInputType)},
				},
				Resolve: requireAuth(r.addRating),
			},
			"updateRating": &graphql.Field{
				Type: ratingResponseType,
				Args: graphql.FieldConfigArgument{
					"id":        &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Int)},
					"newRating": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Int)},
				},
				Resolve: requireAuth(r.updateRating),
			},
			"createMeeting": &graphql.Field{
				Type: graphql.NewNonNull(t.meeting),
				Args: graphql.FieldConfigArgument{
					"data": &graphql.ArgumentConfig{Type: graphql.NewNonNull(meetingInputType)},
				},
				Resolve: requireAuth(r.createMeeting),
			},
			"updateMeeting": &graphql.Field{
				Type: t.meeting,
				Args: graphql.FieldConfigArgument{
					"id":   &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Int)},
					"data": &graphql.ArgumentConfig{Type: graphql.NewNonNull(meetingInputType)},
				},
				Resolve: requireAuth(r.updateMeeting),
			},
			"deleteMeeting": &graphql.Field{
				Type:    graphql.NewNonNull(graphql.Boolean),
				Args:    idArg("id"),
				Resolve: requireAuth(r.deleteMeeting),
			},
			"removeReadingFromMeeting": &graphql.Field{
				Type: graphql.NewNonNull(graphql.Boolean),
				Args: graphql.FieldConfigArgument{
					"meetingId": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Int)},
					"readingId": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Int)},
				},
				Resolve: requireAuth(r.removeReadingFromMeeting),
			},
			"addAttendanceRecord": &graphql.Field{
				Type: attendanceType,
				Args: graphql.FieldConfigArgument{
					"userId":             &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Int)},
					"meetingId":          &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Int)},
					"attendanceState":    &graphql.ArgumentConfig{Type: attendanceStateEnum},
					"isDiscussionLeader": &graphql.ArgumentConfig{Type: graphql.Boolean},
				},
				Resolve: requireAuth(r.addAttendanceRecord),
			},
		},
	})
}

func (r *Resolver) register(p graphql.ResolveParams) (interface{}, error) {
	s, err := session(p.Context)
	if err != nil {
		return nil, fail(p.Context, "register_failed", err)
	}
	options := argObject(p.Args, "options")
	in := services.RegisterInput{}
	if v := argString(options, "email"); v != nil {
		in.Email = *v
	}
	if v := argString(options, "password"); v != nil {
		in.Password = *v
	}
	if v := argString(options, "name"); v != nil {
		in.Name = *v
	}

	result, err := r.Users.Register(p.Context, s, in)
	if err != nil {
		return nil, fail(p.Context, "register_failed", err)
	}
	if result.User != nil {
		logger.InfoWithUser(auth.UserLabel(p.Context), "user_registered", map[string]interface{}{"user_id": result.User.ID})
		r.audit(p.Context, "user.register", "user", &result.User.ID, nil)
	}
	return result, nil
}

func (r *Resolver) login(p graphql.ResolveParams) (interface{}, error) {
	s, err := session(p.Context)
	if err != nil {
		return nil, fail(p.Context, "login_failed", err)
	}
	options := argObject(p.Args, "options")
	email, password := "", ""
	if v := argString(options, "email"); v != nil {
		email = *v
	}
	if v := argString(options, "password"); v != nil {
		password = *v
	}

	result, err := r.Users.Login(p.Context, s, email, password)
	if err != nil {
		return nil, fail(p.Context, "login_failed", err)
	}
	if result.User == nil {
		logger.Warn("login_rejected", map[string]interface{}{"field": result.Errors[0].Field})
		return result, nil
	}
	r.audit(p.Context, "user.login", "user", &result.User.ID, nil)
	return result, nil
}

func (r *Resolver) logout(p graphql.ResolveParams) (interface{}, error) {
	s, err := session(p.Context)
	if err != nil {
		return false, nil
	}
	userID := userIDForAudit(p.Context)
	ok := r.Users.Logout(s)
	if ok && userID != nil {
		r.Audit.LogAsync(services.AuditEntry{
			UserID:       userID,
			Action:       "user.logout",
			ResourceType: "user",
			ResourceID:   userID,
			IPAddress:    requestInfo(p.Context).IP,
			RequestID:    requestInfo(p.Context).RequestID,
		})
	}
	return ok, nil
}

func (r *Resolver) changePassword(p graphql.ResolveParams) (interface{}, error) {
	s, err := session(p.Context)
	if err != nil {
		return nil, fail(p.Context, "change_password_failed", err)
	}
	token, _ := p.Args["token"].(string)
	newPassword, _ := p.Args["newPassword"].(string)

	result, err := r.Users.ChangePassword(p.Context, s, token, newPassword)
	if err != nil {
		return nil, fail(p.Context, "change_password_failed", err)
	}
	if result.User != nil {
		r.audit(p.Context, "user.password_change", "user", &result.User.ID, nil)
	}
	return result, nil
}

func (r *Resolver) createReading(p graphql.ResolveParams) (interface{}, error) {
	userID, err := auth.RequireUser(p.Context)
	if err != nil {
		return nil, err
	}
	reading, err := r.Readings.Create(p.Context, userID, readingInput(argObject(p.Args, "data")))
	if err != nil {
		return nil, fail(p.Context, "create_reading_failed", err)
	}

	logger.InfoWithUser(auth.UserLabel(p.Context), "reading_created", map[string]interface{}{
		"reading_id": reading.ID,
		"title":      reading.Title,
	})
	r.audit(p.Context, "reading.create", "reading", &reading.ID, map[string]interface{}{"title": reading.Title})
	return reading, nil
}

func (r *Resolver) updateReading(p graphql.ResolveParams) (interface{}, error) {
	id, err := argUint(p.Args, "id")
	if err != nil {
		return nil, err
	}
	reading, err := r.Readings.Update(p.Context, id, readingInput(argObject(p.Args, "data")))
	if err != nil {
		return nil, fail(p.Context, "update_reading_failed", err)
	}
	if reading == nil {
		return nil, nil
	}
	r.audit(p.Context, "reading.update", "reading", &reading.ID, nil)
	return reading, nil
}

// deleteReading reports false instead of failing.
func (r *Resolver) deleteReading(p graphql.ResolveParams) (interface{}, error) {
	ids, err := argUintList(p.Args, "ids")
	if err != nil {
		return false, nil
	}
	if err := r.Readings.Delete(p.Context, ids); err != nil {
		logger.ErrorWithUser(auth.UserLabel(p.Context), "delete_reading_failed", err, map[string]interface{}{"ids": ids})
		return false, nil
	}
	r.audit(p.Context, "reading.delete", "reading", nil, map[string]interface{}{"ids": ids})
	return true, nil
}

func (r *Resolver) addRating(p graphql.ResolveParams) (interface{}, error) {
	userID, err := auth.RequireUser(p.Context)
	if err != nil {
		return nil, err
	}
	input := argObject(p.Args, "input")
	readingID, err := argUint(input, "readingId")
	if err != nil {
		return nil, err
	}
	value := argInt(input, "rating", 0)

	result, err := r.Ratings.Add(p.Context, userID, readingID, value)
	if err != nil {
		return nil, fail(p.Context, "add_rating_failed", err)
	}
	r.audit(p.Context, "rating.create", "rating", &result.Rating.ID, map[string]interface{}{
		"reading_id": readingID,
		"rating":     value,
	})
	return result, nil
}

func (r *Resolver) updateRating(p graphql.ResolveParams) (interface{}, error) {
	id, err := argUint(p.Args, "id")
	if err != nil {
		return nil, err
	}
	value := argInt(p.Args, "newRating", 0)

	result, err := r.Ratings.Update(p.Context, id, value)
	if err != nil {
		return nil, fail(p.Context, "update_rating_failed", err)
	}
	if result == nil {
		return nil, nil
	}
	r.audit(p.Context, "rating.update", "rating", &result.Rating.ID, map[string]interface{}{"rating": value})
	return result, nil
}

func (r *Resolver) createMeeting(p graphql.ResolveParams) (interface{}, error) {
	in, err := meetingInput(argObject(p.Args, "data"))
	if err != nil {
		return nil, err
	}
	meeting, err := r.Meetings.Create(p.Context, in)
	if err != nil {
		return nil, fail(p.Context, "create_meeting_failed", err)
	}
	r.audit(p.Context, "meeting.create", "meeting", &meeting.ID, map[string]interface{}{"readings": len(in.Assignments)})
	return meeting, nil
}

func (r *Resolver) updateMeeting(p graphql.ResolveParams) (interface{}, error) {
	id, err := argUint(p.Args, "id")
	if err != nil {
		return nil, err
	}
	in, err := meetingInput(argObject(p.Args, "data"))
	if err != nil {
		return nil, err
	}
	meeting, err := r.Meetings.Update(p.Context, id, in)
	if err != nil {
		return nil, fail(p.Context, "update_meeting_failed", err)
	}
	if meeting == nil {
		return nil, nil
	}
	r.audit(p.Context, "meeting.update", "meeting", &meeting.ID, nil)
	return meeting, nil
}

func (r *Resolver) deleteMeeting(p graphql.ResolveParams) (interface{}, error) {
	id, err := argUint(p.Args, "id")
	if err != nil {
		return false, nil
	}
	deleted, err := r.Meetings.Delete(p.Context, id)
	if err != nil {
		logger.ErrorWithUser(auth.UserLabel(p.Context), "delete_meeting_failed", err, map[string]interface{}{"meeting_id": id})
		return false, nil
	}
	if deleted {
		r.audit(p.Context, "meeting.delete", "meeting", &id, nil)
	}
	return deleted, nil
}

func (r *Resolver) removeReadingFromMeeting(p graphql.ResolveParams) (interface{}, error) {
	meetingID, err := argUint(p.Args, "meetingId")
	if err != nil {
		return false, nil
	}
	readingID, err := argUint(p.Args, "readingId")
	if err != nil {
		return false, nil
	}
	removed, err := r.Meetings.RemoveReading(p.Context, meetingID, readingID)
	if err != nil {
		logger.ErrorWithUser(auth.UserLabel(p.Context), "remove_reading_failed", err, map[string]interface{}{
			"meeting_id": meetingID,
			"reading_id": readingID,
		})
		return false, nil
	}
	if removed {
		r.audit(p.Context, "meeting.remove_reading", "meeting", &meetingID, map[string]interface{}{"reading_id": readingID})
	}
	return removed, nil
}

func (r *Resolver) addAttendanceRecord(p graphql.ResolveParams) (interface{}, error) {
	userID, err := argUint(p.Args, "userId")
	if err != nil {
		return nil, err
	}
	meetingID, err := argUint(p.Args, "meetingId")
	if err != nil {
		return nil, err
	}
	var state *models.AttendanceState
	if v, ok := p.Args["attendanceState"].(models.AttendanceState); ok {
		state = &v
	}

	record, err := r.Attendance.Record(p.Context, userID, meetingID, state, argBool(p.Args, "isDiscussionLeader"))
	if err != nil {
		return nil, fail(p.Context, "add_attendance_failed", err)
	}
	if record == nil {
		return nil, nil
	}
	r.audit(p.Context, "attendance.record", "meeting", &meetingID, map[string]interface{}{
		"user_id": userID,
		"state":   string(record.AttendanceState),
	})
	return record, nil
}
